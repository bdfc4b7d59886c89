package llm

import (
	"encoding/json"
	"fmt"
)

// Purpose identifies one analysis prompt template and its generation tuning.
type Purpose string

const (
	PurposeSpendingRating Purpose = "spending-rating"
	PurposeLongtermGoals  Purpose = "longterm-goals"
	PurposeShorttermGoals Purpose = "shortterm-goals"
	PurposeGoodHabits     Purpose = "good-habits"
	PurposeBadHabits      Purpose = "bad-habits"
	PurposeIdealSpending  Purpose = "ideal-spending"
)

// GenerationOptions are per-purpose tuning knobs for the generation service.
// Zero Temperature/TopP means the service defaults apply.
type GenerationOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// OptionsFor returns the token budget and sampling parameters used for a
// given analysis purpose.
func OptionsFor(purpose Purpose) GenerationOptions {
	switch purpose {
	case PurposeGoodHabits:
		return GenerationOptions{MaxTokens: 500, Temperature: 0.6, TopP: 0.9}
	case PurposeBadHabits:
		// Largest budget; the bad-habits shape has four category lists and
		// truncated responses never parse.
		return GenerationOptions{MaxTokens: 600, Temperature: 0.6, TopP: 0.9}
	case PurposeIdealSpending:
		return GenerationOptions{MaxTokens: 400}
	default:
		return GenerationOptions{MaxTokens: 250}
	}
}

// BuildPrompt renders the instruction text for one analysis purpose with the
// payload embedded as pretty-printed JSON. Deterministic and side-effect
// free; a payload the service cannot work with is the service's problem and
// surfaces downstream as an extraction failure.
func BuildPrompt(purpose Purpose, payload any) string {
	data := encodePayload(payload)

	switch purpose {
	case PurposeSpendingRating:
		return fmt.Sprintf(spendingRatingTemplate, data)
	case PurposeLongtermGoals:
		return fmt.Sprintf(goalsTemplate, data, "long-term", "longterm_goals")
	case PurposeShorttermGoals:
		return fmt.Sprintf(goalsTemplate, data, "short-term", "shortterm_goals")
	case PurposeGoodHabits:
		return fmt.Sprintf(goodHabitsTemplate, data)
	case PurposeBadHabits:
		return fmt.Sprintf(badHabitsTemplate, data)
	case PurposeIdealSpending:
		return fmt.Sprintf(idealSpendingTemplate, data)
	default:
		return data
	}
}

func encodePayload(payload any) string {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", payload)
	}
	return string(b)
}

const spendingRatingTemplate = `You are an expert financial advisor specializing in personal finance in India.
Your task is to provide precise, actionable financial insights based on clear financial metrics.
For this section provide valuable and precise insights and ratings.

### User Data
%s

### Rules for Optimization
- **Overall User Spending Rating** (every financial consumption pattern of the user): understand the user's budget and give a rating out of 100. Only give a rating of 100 to a perfect budget allocation for the given monthly income.
- **Analysis** (deeper analysis of financially important metrics): can be both negative and positive based on user spending.
- **Primary Goal:** analyze the good and bad practices in the user's expenditure habits and give discrete informative insights.
- **Finally:** populate the data into the given JSON format strictly.

### Expected JSON Output Format
Return only JSON in the following format:
{
    "rating": 0,
    "analysis": [
        "Insight 1",
        "Insight 2",
        "Insight 3"
    ]
}

Provide only the JSON response.`

const goalsTemplate = `Based on the following spending analysis insights, generate %[2]s financial goals.

### Spending Analysis
%[1]s

### Expected JSON Output Format
{
    "%[3]s": [
        "Goal 1",
        "Goal 2",
        "Goal 3"
    ]
}

Provide only the JSON response.`

const goodHabitsTemplate = `You are an expert financial advisor specializing in personal finance in India.
Identify positive financial habits and areas where strategic spending can improve financial health.

### User Data
%s

### Expected JSON Output Format
{
  "positiveSpendingOpportunities": {
    "investments": [
      {
        "category": "string",
        "recommendedIncrease": 0,
        "expectedReturns": "string"
      }
    ],
    "selfDevelopment": [
      {
        "area": "string",
        "suggestedAllocation": 0,
        "potentialBenefits": []
      }
    ],
    "protectiveSpending": [
      {
        "type": "string",
        "recommendedCoverage": 0,
        "justification": "string"
      }
    ]
  },
  "growthAreas": {
    "skillEnhancement": [
      {
        "skill": "string",
        "investmentNeeded": 0,
        "careerImpact": "string"
      }
    ]
  }
}

Return only valid JSON without explanations.`

const badHabitsTemplate = `You are a professional financial advisor specializing in personal finance in India.
Analyze negative financial habits and provide clear, strategic improvement suggestions.

Focus Areas:
1. Identify unnecessary spending that can be reduced.
2. Highlight inefficient debt management and refinancing opportunities.
3. Suggest cost-effective lifestyle changes that improve financial health.
4. Recommend utility savings techniques for reducing monthly bills.

### User Data
%s

### Expected JSON Output Format
{
  "highImpactReductions": [
    {
      "category": "string",
      "currentSpending": 0,
      "recommendedSpending": 0,
      "potentialMonthlySavings": 0,
      "specificActions": [],
      "difficultyLevel": "EASY|MEDIUM|HARD"
    }
  ],
  "debtOptimizations": [
    {
      "loanType": "string",
      "currentEMI": 0,
      "optimizationStrategy": "string",
      "potentialSavings": 0
    }
  ],
  "lifestyleAdjustments": [
    {
      "habit": "string",
      "currentCost": 0,
      "alternative": "string",
      "monthlySavings": 0,
      "impactOnQualityOfLife": "LOW|MEDIUM|HIGH"
    }
  ],
  "smartSubstitutions": [
    {
      "currentItem": "string",
      "suggestedAlternative": "string",
      "upfrontCost": 0,
      "monthlySavings": 0,
      "breakEvenPeriod": "string"
    }
  ]
}

Ensure the JSON response is properly formatted. Do not leave any values incomplete.
Avoid truncation and always return a fully valid JSON response.`

const idealSpendingTemplate = `You are a financial expert specializing in personal budgeting.
Analyze the user's income and current spending patterns to suggest an ideal spending breakdown.

Financial Guidelines:
- 50%% Essentials (Needs): rent, food, utilities, transportation, insurance.
- 30%% Discretionary (Wants): entertainment, dining out, shopping, non-essentials.
- 20%% Savings & Debt: savings, investments, debt payments, retirement funds.
- Adjustments: if the user has high debt, prioritize debt reduction in the savings portion.

### User Data
%s

### Expected JSON Output Format
{
    "income": 0,
    "ideal_allocation": {
        "essentials": {
            "percentage": 50,
            "recommended_budget": 0
        },
        "discretionary": {
            "percentage": 30,
            "recommended_budget": 0
        },
        "savings_and_debt": {
            "percentage": 20,
            "recommended_budget": 0
        }
    },
    "custom_recommendations": [
        "Recommendation 1",
        "Recommendation 2",
        "Recommendation 3"
    ]
}

Provide only JSON. No additional explanations.`

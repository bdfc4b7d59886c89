package models

import "go.mongodb.org/mongo-driver/v2/bson"

// EMI is a recurring loan installment in the user's expense breakdown.
type EMI struct {
	Name     string  `bson:"name" json:"name"`
	Amount   float64 `bson:"amount" json:"amount"`
	Interest float64 `bson:"interest" json:"interest"`
}

type ExtraCost struct {
	Name   string  `bson:"name" json:"name"`
	Amount float64 `bson:"amount" json:"amount"`
}

type MonthlyFixedExpenses struct {
	Housing        float64 `bson:"housing" json:"housing"`
	Utilities      float64 `bson:"utilities" json:"utilities"`
	Transportation float64 `bson:"transportation" json:"transportation"`
	Food           float64 `bson:"food" json:"food"`
}

type MonthlyVariableExpenses struct {
	Entertainment float64 `bson:"entertainment" json:"entertainment"`
	Personal      float64 `bson:"personal" json:"personal"`
}

type MonthlyExpenses struct {
	Fixed    MonthlyFixedExpenses    `bson:"fixed" json:"fixed"`
	Variable MonthlyVariableExpenses `bson:"variable" json:"variable"`
}

type FinancialGoals struct {
	LongTermGoals  []string `bson:"LongTermGoals" json:"LongTermGoals"`
	ShortTermGoals []string `bson:"ShortTermGoal" json:"ShortTermGoal"`
}

// FinancialData is the user-submitted financial profile the pipeline
// analyzes. It is owned by the registration flow; the pipeline only reads it.
type FinancialData struct {
	MonthlyIncome       float64         `bson:"monthlyIncome" json:"monthlyIncome"`
	SavingsGoal         float64         `bson:"savingsGoal" json:"savingsGoal"`
	InvestmentTimeframe string          `bson:"investmentTimeframe" json:"investmentTimeframe"`
	RiskTolerance       string          `bson:"riskTolerance" json:"riskTolerance"`
	Expenses            MonthlyExpenses `bson:"expenses" json:"expenses"`
	FinancialGoals      FinancialGoals  `bson:"financial_goals" json:"financial_goals"`
	Savings             float64         `bson:"savings" json:"savings"`
	Debts               float64         `bson:"debts" json:"debts"`
	Investments         float64         `bson:"investments" json:"investments"`
	EMIs                []EMI           `bson:"emis" json:"emis"`
	ExtraCosts          []ExtraCost     `bson:"extraCosts" json:"extraCosts"`
}

// UserProfile is the durable user record in the users collection. The five
// derived fields are written back by the analysis pipeline; everything else
// is owned upstream.
type UserProfile struct {
	ID         bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	Email      string         `bson:"email" json:"email"`
	FullName   string         `bson:"fullName" json:"fullName"`
	Age        int            `bson:"age" json:"age"`
	Occupation string         `bson:"occupation" json:"occupation"`
	Financial  *FinancialData `bson:"financial,omitempty" json:"financial,omitempty"`

	DerivedFields `bson:",inline"`
}

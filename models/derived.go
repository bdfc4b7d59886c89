package models

// SpendAnalysis is the spending-rating stage output: an overall budget rating
// out of 100 plus a list of insight strings.
type SpendAnalysis struct {
	Rating   int      `bson:"rating" json:"rating"`
	Analysis []string `bson:"analysis" json:"analysis"`
}

// Recommendation is one habit recommendation as returned by the generation
// service. The categories carry different shapes (reductions, debt
// optimizations, substitutions), so the record stays a free-form object.
type Recommendation map[string]any

// ErrorRecommendation builds the placeholder record the habit normalizer
// returns when a response yielded no usable items.
func ErrorRecommendation(cause string) Recommendation {
	return Recommendation{"error": cause}
}

// DerivedFields holds the five analysis outputs attached to a UserProfile.
// Each field is replaced wholesale by its stage; a zero value means the
// stage has never succeeded for this user.
type DerivedFields struct {
	SpendAnalysis *SpendAnalysis   `bson:"spend_analysis,omitempty" json:"spend_analysis,omitempty"`
	Longterm      []string         `bson:"longterm,omitempty" json:"longterm,omitempty"`
	Shortterm     []string         `bson:"shortterm,omitempty" json:"shortterm,omitempty"`
	GoodHabits    []Recommendation `bson:"good_habits,omitempty" json:"good_habits,omitempty"`
	BadHabits     []Recommendation `bson:"bad_habits,omitempty" json:"bad_habits,omitempty"`
}

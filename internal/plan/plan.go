// Package plan holds client retirement plans: the client profile, the
// income buckets funds are allocated to, and each bucket's projection.
package plan

import "time"

// Asset is one line of the client's asset breakdown.
type Asset struct {
	Category string  `json:"category" yaml:"category"`
	Amount   float64 `json:"amount" yaml:"amount"`
}

// ClientProfile describes the client a plan is built for.
type ClientProfile struct {
	Name                    string  `json:"name" yaml:"name"`
	Age                     int     `json:"age" yaml:"age"`
	RetirementAge           int     `json:"retirementAge" yaml:"retirementAge"`
	LifeExpectancy          int     `json:"lifeExpectancy" yaml:"lifeExpectancy"`
	MaritalStatus           string  `json:"maritalStatus" yaml:"maritalStatus"`
	TotalAssets             float64 `json:"totalAssets" yaml:"totalAssets"`
	AnnualIncome            float64 `json:"annualIncome" yaml:"annualIncome"`
	DesiredRetirementIncome float64 `json:"desiredRetirementIncome" yaml:"desiredRetirementIncome"`
	SocialSecurity          float64 `json:"socialSecurity" yaml:"socialSecurity"`
	Pension                 float64 `json:"pension" yaml:"pension"`
	RiskTolerance           string  `json:"riskTolerance" yaml:"riskTolerance"`
	Assets                  []Asset `json:"assets" yaml:"assets"`
}

// Bucket is an allocation of client funds to one income strategy.
// InterestRate and Percentage are percents (5 means 5%); DelayPeriod and
// IncomePeriods are years.
type Bucket struct {
	ID            string  `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	PremiumAmount float64 `json:"premiumAmount" yaml:"premiumAmount"`
	InterestRate  float64 `json:"interestRate" yaml:"interestRate"`
	DelayPeriod   int     `json:"delayPeriod" yaml:"delayPeriod"`
	IncomePeriods int     `json:"incomePeriods" yaml:"incomePeriods"`
	Percentage    float64 `json:"percentage" yaml:"percentage"`
	RiskTolerance string  `json:"riskTolerance" yaml:"riskTolerance"`
}

// Result is the projection computed for one bucket.
type Result struct {
	FutureValue      float64 `json:"futureValue" yaml:"futureValue"`
	IncomeSolve      float64 `json:"incomeSolve" yaml:"incomeSolve"`
	AnnuityPayment   float64 `json:"annuityPayment" yaml:"annuityPayment"`
	EstimatedPremium float64 `json:"estimatedPremium" yaml:"estimatedPremium"`
}

// Notes formats accepted for advisor notes.
const (
	NotesText     = "txt"
	NotesMarkdown = "md"
	NotesHTML     = "html"
	NotesCSV      = "csv"
)

// Data is everything a report is generated from. Results is keyed by
// bucket ID.
type Data struct {
	Client      ClientProfile     `json:"clientProfile" yaml:"clientProfile"`
	Buckets     []Bucket          `json:"buckets" yaml:"buckets"`
	Results     map[string]Result `json:"calculationResults" yaml:"calculationResults"`
	Notes       string            `json:"notes,omitempty" yaml:"notes,omitempty"`
	NotesFormat string            `json:"notesFormat,omitempty" yaml:"notesFormat,omitempty"`
}

// Result returns the projection for bucket id, or the zero Result.
func (d Data) Result(id string) Result {
	return d.Results[id]
}

// Plan is a named, persisted plan owned by one advisor.
type Plan struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	ClientName  string    `json:"client_name"`
	CompanyName string    `json:"company_name,omitempty"`
	Data        Data      `json:"plan_data"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

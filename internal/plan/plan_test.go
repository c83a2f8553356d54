package plan

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func incomeBucket() Bucket {
	return Bucket{
		ID:            "b1",
		Name:          "Income Bucket",
		PremiumAmount: 100000,
		InterestRate:  5,
		DelayPeriod:   1,
		IncomePeriods: 20,
		Percentage:    100,
		RiskTolerance: "moderate",
	}
}

func validData() Data {
	return Data{
		Client: ClientProfile{
			Name:                    "Jane Doe",
			Age:                     60,
			RetirementAge:           65,
			LifeExpectancy:          90,
			TotalAssets:             250000,
			AnnualIncome:            90000,
			DesiredRetirementIncome: 60000,
			SocialSecurity:          24000,
			Pension:                 6000,
			RiskTolerance:           "moderate",
			Assets:                  []Asset{{"401(k)", 150000}, {"Savings", 100000}},
		},
		Buckets: []Bucket{incomeBucket()},
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestProject_FutureValueAndIncome(t *testing.T) {
	r := Project(incomeBucket(), ClientProfile{})
	if r.FutureValue != 105000 {
		t.Errorf("FutureValue = %v, want 105000", r.FutureValue)
	}
	if r.IncomeSolve != 5250 {
		t.Errorf("IncomeSolve = %v, want 5250", r.IncomeSolve)
	}
	// 105000 * 0.05 / (1 - 1.05^-20)
	if !near(r.AnnuityPayment, 8425.47) {
		t.Errorf("AnnuityPayment = %v, want 8425.47", r.AnnuityPayment)
	}
	if r.EstimatedPremium != 100000 {
		t.Errorf("EstimatedPremium = %v, want premium when there is no income gap", r.EstimatedPremium)
	}
}

func TestProject_EstimatedPremiumFundsGap(t *testing.T) {
	b := incomeBucket()
	b.Percentage = 50
	c := ClientProfile{DesiredRetirementIncome: 40000, SocialSecurity: 20000}
	r := Project(b, c)

	// The estimated premium, projected forward, must pay half the 20000 gap.
	fv := r.EstimatedPremium * 1.05
	if got := Payment(fv, 0.05, 20); !near(got, 10000) {
		t.Errorf("payment from estimated premium = %v, want 10000", got)
	}
}

func TestProject_ZeroRate(t *testing.T) {
	b := incomeBucket()
	b.InterestRate = 0
	r := Project(b, ClientProfile{})
	if r.FutureValue != 100000 || r.IncomeSolve != 0 || r.AnnuityPayment != 5000 {
		t.Errorf("zero-rate projection = %+v", r)
	}
}

func TestPayment_NoPeriods(t *testing.T) {
	if got := Payment(1000, 0.05, 0); got != 0 {
		t.Errorf("Payment with no periods = %v, want 0", got)
	}
}

func TestCompute_KeepsSuppliedResults(t *testing.T) {
	d := validData()
	d.Results = map[string]Result{"b1": {FutureValue: 150000, IncomeSolve: 8000, AnnuityPayment: 9000, EstimatedPremium: 100000}}
	d.Buckets = append(d.Buckets, Bucket{ID: "b2", Name: "Growth", PremiumAmount: 50000, InterestRate: 6, DelayPeriod: 10, IncomePeriods: 10})

	out := Compute(d)
	if out.Results["b1"].FutureValue != 150000 {
		t.Error("supplied result was overwritten")
	}
	if out.Results["b2"].FutureValue == 0 {
		t.Error("missing result was not computed")
	}
	if _, ok := d.Results["b2"]; ok {
		t.Error("Compute modified its input")
	}
}

func TestRecompute_Overwrites(t *testing.T) {
	d := validData()
	d.Results = map[string]Result{"b1": {FutureValue: 1}}
	if got := Recompute(d).Results["b1"].FutureValue; got != 105000 {
		t.Errorf("FutureValue = %v, want 105000", got)
	}
}

func TestTotals_SingleBucketEqualsBucket(t *testing.T) {
	d := validData()
	d.Results = map[string]Result{"b1": {FutureValue: 150000, IncomeSolve: 8000, AnnuityPayment: 9000, EstimatedPremium: 100000}}
	tot := d.Totals()
	if tot.Premium != 100000 || tot.Percentage != 100 || tot.FutureValue != 150000 ||
		tot.IncomeSolve != 8000 || tot.AnnuityPayment != 9000 || tot.EstimatedPremium != 100000 {
		t.Errorf("totals = %+v", tot)
	}
}

func TestTotals_WeightedRate(t *testing.T) {
	d := Data{Buckets: []Bucket{
		{ID: "a", PremiumAmount: 300000, InterestRate: 4},
		{ID: "b", PremiumAmount: 100000, InterestRate: 8},
	}}
	if got := d.Totals().Rate; got != 5 {
		t.Errorf("Rate = %v, want 5", got)
	}
	if got := (Data{}).Totals().Rate; got != 0 {
		t.Errorf("Rate with no buckets = %v, want 0", got)
	}
}

func TestSummary_ZeroBucketsAndZeroDenominators(t *testing.T) {
	s := Data{}.Summary()
	if s != (Summary{}) {
		t.Errorf("empty summary = %+v, want zero", s)
	}
	if Percent(5, 0) != 0 || Percent(5, -1) != 0 {
		t.Error("Percent must guard non-positive denominators")
	}
}

func TestSummary_Values(t *testing.T) {
	d := validData()
	d.Results = map[string]Result{"b1": {AnnuityPayment: 9000}}
	s := d.Summary()
	if s.YearsToRetirement != 5 || s.YearsInRetirement != 25 {
		t.Errorf("years = %d/%d", s.YearsToRetirement, s.YearsInRetirement)
	}
	if s.ProjectedIncome != 39000 {
		t.Errorf("ProjectedIncome = %v, want 39000", s.ProjectedIncome)
	}
	if s.Shortfall != 21000 {
		t.Errorf("Shortfall = %v, want 21000", s.Shortfall)
	}
	if s.AllocatedOfAssets != 40 {
		t.Errorf("AllocatedOfAssets = %v, want 40", s.AllocatedOfAssets)
	}
}

func TestAssetTotal(t *testing.T) {
	c := ClientProfile{TotalAssets: 10}
	if c.AssetTotal() != 10 {
		t.Error("expected TotalAssets without itemized assets")
	}
	c.Assets = []Asset{{"a", 3}, {"b", 4}}
	if c.AssetTotal() != 7 {
		t.Error("expected sum of itemized assets")
	}
}

func TestTimeline_GrowsThenDrawsDown(t *testing.T) {
	d := Compute(validData())
	tl := d.Timeline()
	if len(tl.Years) != 22 || len(tl.Balances) != 1 {
		t.Fatalf("timeline shape = %d years, %d rows", len(tl.Years), len(tl.Balances))
	}
	row := tl.Balances[0]
	if row[0] != 100000 || row[1] != 105000 {
		t.Errorf("growth years = %v, %v", row[0], row[1])
	}
	if row[2] >= row[1] {
		t.Error("expected drawdown after the delay period")
	}
	if row[21] > 1 {
		t.Errorf("balance after final payment = %v, want ~0", row[21])
	}
}

func TestTimeline_Empty(t *testing.T) {
	if tl := (Data{}).Timeline(); len(tl.Years) != 0 {
		t.Errorf("expected empty timeline, got %d years", len(tl.Years))
	}
}

func TestMoney(t *testing.T) {
	tests := map[float64]string{
		0:           "$0",
		100000:      "$100,000",
		1234567.5:   "$1,234,568",
		-2500:       "-$2,500",
		999.49:      "$999",
		0.4:         "$0",
		-0.4:        "$0",
		1000000000:  "$1,000,000,000",
		1e19:        "$10,000,000,000,000,000,000",
		-1e19:       "-$10,000,000,000,000,000,000",
		math.Inf(1): "n/a",
		math.NaN():  "n/a",
	}
	for in, want := range tests {
		if got := Money(in); got != want {
			t.Errorf("Money(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestPct(t *testing.T) {
	tests := map[float64]string{
		0:           "0%",
		5:           "5%",
		100:         "100%",
		12.3456:     "12.35%",
		33.33333:    "33.33%",
		-0.001:      "0%",
		math.Inf(1): "n/a",
	}
	for in, want := range tests {
		if got := Pct(in); got != want {
			t.Errorf("Pct(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestYears(t *testing.T) {
	if Years(1) != "1 year" || Years(20) != "20 years" || Years(0) != "0 years" {
		t.Error("unexpected Years output")
	}
}

func TestValidate_ValidPasses(t *testing.T) {
	if err := Validate(validData()); err != nil {
		t.Errorf("expected valid plan to pass: %v", err)
	}
}

func TestValidate_EmptyPlanPasses(t *testing.T) {
	if err := Validate(Data{}); err != nil {
		t.Errorf("expected empty plan to pass: %v", err)
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	d := validData()
	d.Client.Age = -1
	d.Buckets = append(d.Buckets, Bucket{ID: "b1", InterestRate: 150, Percentage: -5, RiskTolerance: "yolo"})
	d.NotesFormat = "rtf"

	err := Validate(d)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	wants := []string{"age -1", "duplicate bucket id", "interest rate 150", "percentage -5", `"yolo"`, `"rtf"`}
	for _, w := range wants {
		if !strings.Contains(err.Error(), w) {
			t.Errorf("error %q missing %q", err.Error(), w)
		}
	}
}

func TestValidate_RejectsUnprintableNumbers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Data)
		want   string
	}{
		{"huge premium", func(d *Data) { d.Buckets[0].PremiumAmount = 1e308 }, "premium exceeds $1,000,000,000,000,000"},
		{"infinite premium", func(d *Data) { d.Buckets[0].PremiumAmount = math.Inf(1) }, "premium must be a finite number"},
		{"nan assets", func(d *Data) { d.Client.TotalAssets = math.NaN() }, "total assets must be a finite number"},
		{"negative pension", func(d *Data) { d.Client.Pension = -1 }, "pension must not be negative"},
		{"huge asset", func(d *Data) { d.Client.Assets[0].Amount = 2e15 }, "amount exceeds"},
		{"nan rate", func(d *Data) { d.Buckets[0].InterestRate = math.NaN() }, "interest rate NaN out of range"},
		{"long delay", func(d *Data) { d.Buckets[0].DelayPeriod = 5000 }, "periods exceed 100 years"},
		{"infinite result", func(d *Data) {
			d.Results = map[string]Result{"b1": {FutureValue: math.Inf(1)}}
		}, `result "b1" futureValue`},
		{"negative result", func(d *Data) {
			d.Results = map[string]Result{"b1": {AnnuityPayment: -5}}
		}, `result "b1" annuityPayment`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validData()
			tt.mutate(&d)
			err := Validate(d)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidate_LargestPlanStaysPrintable(t *testing.T) {
	d := validData()
	d.Buckets[0].PremiumAmount = MaxAmount
	d.Buckets[0].InterestRate = 100
	d.Buckets[0].DelayPeriod = MaxPeriods
	if err := Validate(d); err != nil {
		t.Fatalf("expected limits to pass: %v", err)
	}
	r := Compute(d).Result("b1")
	if math.IsInf(r.FutureValue, 0) || strings.HasPrefix(Money(r.FutureValue), "-") {
		t.Errorf("future value %v formats as %q", r.FutureValue, Money(r.FutureValue))
	}
}

func TestValidate_MissingBucketID(t *testing.T) {
	d := validData()
	d.Buckets[0].ID = ""
	if err := Validate(d); err == nil || !strings.Contains(err.Error(), "Income Bucket has no id") {
		t.Errorf("expected missing id error, got %v", err)
	}
}

func TestData_JSONFieldNames(t *testing.T) {
	raw := `{
		"clientProfile": {"name": "Jane", "totalAssets": 250000},
		"buckets": [{"id":"b1","name":"Income Bucket","premiumAmount":100000,"interestRate":5,"delayPeriod":1,"incomePeriods":20,"percentage":100,"riskTolerance":"moderate"}],
		"calculationResults": {"b1": {"futureValue":150000,"incomeSolve":8000,"annuityPayment":9000,"estimatedPremium":100000}}
	}`
	var d Data
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatal(err)
	}
	if d.Buckets[0] != incomeBucket() {
		t.Errorf("bucket = %+v", d.Buckets[0])
	}
	if d.Result("b1").IncomeSolve != 8000 {
		t.Errorf("result = %+v", d.Result("b1"))
	}
	if d.Client.TotalAssets != 250000 {
		t.Errorf("client = %+v", d.Client)
	}
}

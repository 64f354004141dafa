package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vanshika/remitdesk/internal/domain"
)

// Submission is one public-form request body.
type Submission map[string]any

// Generator produces synthetic remittance submissions in the shapes the public
// form accepts: both invoice date formats and mixed amount notations.
type Generator struct {
	cfg       Config
	rand      *rand.Rand
	fragments nameFragments
	now       time.Time
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumSubmissions <= 0 {
		cfg.NumSubmissions = def.NumSubmissions
	}
	if cfg.BusinessChance < 0 {
		cfg.BusinessChance = def.BusinessChance
	}
	if cfg.LegacyDateChance < 0 {
		cfg.LegacyDateChance = def.LegacyDateChance
	}
	if cfg.NumericAmountChance < 0 {
		cfg.NumericAmountChance = def.NumericAmountChance
	}
	if cfg.DaysBack <= 0 {
		cfg.DaysBack = def.DaysBack
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:       cfg,
		rand:      rand.New(rand.NewSource(cfg.Seed)),
		fragments: defaultNameFragments(),
		now:       time.Now().UTC(),
	}
}

// WithNow pins the reference instant invoice dates are drawn back from.
func (g *Generator) WithNow(now time.Time) *Generator {
	g.now = now
	return g
}

// Generate synthesises submissions. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) ([]Submission, error) {
	out := make([]Submission, g.cfg.NumSubmissions)
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = g.submission(i)
	}
	return out, nil
}

func (g *Generator) submission(i int) Submission {
	amountCents := int64(g.rand.Intn(490000) + 1000)
	feeCents := int64(g.rand.Intn(2500) + 100)

	s := Submission{
		"invoiceDate":          g.invoiceDate(),
		"invoiceNumber":        fmt.Sprintf("INV-%06d", i+1),
		"invoiceStatus":        pick(g.rand, []string{"Paid", "Pending", "Cancelled"}),
		"moneyTransmitterCode": fmt.Sprintf("MT-%03d", g.rand.Intn(50)+1),
		"sender":               g.person("US"),
		"receiver":             g.person(pick(g.rand, g.fragments.countries)),
		"amountSent":           g.amount(amountCents),
		"fee":                  g.amount(feeCents),
		"paymentMode":          pick(g.rand, []string{"Cash", "Transfer", "Card", "Deposit"}),
		"correspondentId":      fmt.Sprintf("CORR-%02d", g.rand.Intn(20)+1),
		"bankName":             pick(g.rand, g.fragments.banks),
		"accountNumber":        fmt.Sprintf("%010d", g.rand.Int63n(1e10)),
	}
	if g.rand.Float64() < 0.6 {
		s["receiptUrl"] = fmt.Sprintf("https://receipts.example.com/%06d.pdf", i+1)
	}
	return s
}

func (g *Generator) invoiceDate() string {
	day := g.now.AddDate(0, 0, -g.rand.Intn(g.cfg.DaysBack))
	if g.rand.Float64() < g.cfg.LegacyDateChance {
		return fmt.Sprintf("%d/%d/%d", day.Day(), int(day.Month()), day.Year())
	}
	return fmt.Sprintf("%sT%02d:%02d", day.Format("2006-01-02"), g.rand.Intn(24), g.rand.Intn(60))
}

// amount renders cents in one of the notations the form receives.
func (g *Generator) amount(cents int64) any {
	d := decimal.New(cents, -2)
	if g.rand.Float64() < g.cfg.NumericAmountChance {
		f, _ := d.Float64()
		return f
	}
	switch g.rand.Intn(4) {
	case 0:
		return d.StringFixed(2)
	case 1:
		return "$" + d.StringFixed(2)
	case 2:
		return "$" + commaDecimal(d)
	default:
		return "$ " + commaDecimal(d)
	}
}

func commaDecimal(d decimal.Decimal) string {
	s := d.StringFixed(2)
	return s[:len(s)-3] + "," + s[len(s)-2:]
}

func (g *Generator) person(country string) map[string]any {
	first := pick(g.rand, g.fragments.first)
	last := pick(g.rand, g.fragments.last)
	p := map[string]any{
		"fullName":    first + " " + last,
		"address":     fmt.Sprintf("%d %s %s", g.rand.Intn(9999)+1, pick(g.rand, g.fragments.streetNames), pick(g.rand, g.fragments.streetSuffix)),
		"phone1":      g.phone(),
		"zipCode":     fmt.Sprintf("%05d", g.rand.Intn(99999)),
		"cityCode":    pick(g.rand, g.fragments.cityCodes),
		"stateCode":   pick(g.rand, g.fragments.states),
		"countryCode": country,
		"roleType":    string(domain.RoleIndividual),
		"idType":      string(pick(g.rand, []domain.IDType{domain.IDStateID, domain.IDPassport, domain.IDDriversLicense, domain.IDForeignID})),
		"idNumber":    fmt.Sprintf("%c%08d", 'A'+rune(g.rand.Intn(26)), g.rand.Intn(1e8)),
	}
	if g.rand.Float64() < 0.3 {
		p["phone2"] = g.phone()
	}
	if g.rand.Float64() < g.cfg.BusinessChance {
		ein := fmt.Sprintf("%02d-%07d", g.rand.Intn(90)+10, g.rand.Intn(1e7))
		p["roleType"] = string(domain.RoleBusiness)
		p["idType"] = string(domain.IDEIN)
		p["idNumber"] = ein
		p["ein"] = ein
		p["businessName"] = last + " " + pick(g.rand, g.fragments.businessSuffix)
	}
	return p
}

func (g *Generator) phone() string {
	return fmt.Sprintf("+1%03d%03d%04d", g.rand.Intn(900)+100, g.rand.Intn(900)+100, g.rand.Intn(10000))
}

func pick[T any](r *rand.Rand, options []T) T {
	return options[r.Intn(len(options))]
}

type nameFragments struct {
	first          []string
	last           []string
	streetNames    []string
	streetSuffix   []string
	cityCodes      []string
	states         []string
	countries      []string
	banks          []string
	businessSuffix []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:          []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Lucas", "Mia", "Ava", "Ethan", "Zara"},
		last:           []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Ivanov", "Nguyen", "Silva", "Brown", "Lee"},
		streetNames:    []string{"Market", "Mission", "Broadway", "Fifth", "Sunset", "Park", "Cedar", "Oak", "Pine", "Ash"},
		streetSuffix:   []string{"St", "Ave", "Blvd", "Ln", "Rd", "Way"},
		cityCodes:      []string{"SFO", "NYC", "SEA", "AUS", "CHI", "MIA", "DEN", "BOS", "LAX"},
		states:         []string{"CA", "NY", "WA", "TX", "IL", "FL", "CO", "MA"},
		countries:      []string{"MX", "BR", "GT", "SV", "HN", "CO", "DO"},
		banks:          []string{"Banco Azteca", "Banorte", "Itau", "Bancolombia", "Banrural", ""},
		businessSuffix: []string{"Imports", "Trading", "Holdings", "Services"},
	}
}

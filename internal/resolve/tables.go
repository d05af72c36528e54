package resolve

import "strings"

// tableEntry is one static mention -> ticker mapping
type tableEntry struct {
	Ticker     string
	Confidence float64
}

// Static resolution tables. Tier one holds unambiguous megacap names
// (0.99); tier two holds widely known names that occasionally collide
// with common words (0.95). Keys are normalized.
var exactTable = map[string]tableEntry{
	// Tier one
	"apple":              {"AAPL", 0.99},
	"microsoft":          {"MSFT", 0.99},
	"alphabet":           {"GOOGL", 0.99},
	"amazon":             {"AMZN", 0.99},
	"nvidia":             {"NVDA", 0.99},
	"meta":               {"META", 0.99},
	"tesla":              {"TSLA", 0.99},
	"berkshire hathaway": {"BRK.B", 0.99},
	"broadcom":           {"AVGO", 0.99},
	"eli lilly":          {"LLY", 0.99},

	// Tier two
	"jpmorgan chase":         {"JPM", 0.95},
	"visa":                   {"V", 0.95},
	"walmart":                {"WMT", 0.95},
	"exxon mobil":            {"XOM", 0.95},
	"mastercard":             {"MA", 0.95},
	"johnson johnson":        {"JNJ", 0.95},
	"procter gamble":         {"PG", 0.95},
	"oracle":                 {"ORCL", 0.95},
	"costco":                 {"COST", 0.95},
	"home depot":             {"HD", 0.95},
	"coca-cola":              {"KO", 0.95},
	"netflix":                {"NFLX", 0.95},
	"advanced micro devices": {"AMD", 0.95},
	"intel":                  {"INTC", 0.95},
	"ibm":                    {"IBM", 0.95},
	"salesforce":             {"CRM", 0.95},
	"adobe":                  {"ADBE", 0.95},
	"pepsico":                {"PEP", 0.95},
	"bank of america":        {"BAC", 0.95},
	"pfizer":                 {"PFE", 0.95},
	"walt disney":            {"DIS", 0.95},
	"boeing":                 {"BA", 0.95},
	"mcdonalds":              {"MCD", 0.95},
	"nike":                   {"NKE", 0.95},
	"starbucks":              {"SBUX", 0.95},
	"goldman sachs":          {"GS", 0.95},
	"morgan stanley":         {"MS", 0.95},
	"general motors":         {"GM", 0.95},
	"general electric":       {"GE", 0.95},
	"ford motor":             {"F", 0.95},
	"uber":                   {"UBER", 0.95},
	"airbnb":                 {"ABNB", 0.95},
	"paypal":                 {"PYPL", 0.95},
	"qualcomm":               {"QCOM", 0.95},
	"cisco":                  {"CSCO", 0.95},
	"verizon":                {"VZ", 0.95},
	"chevron":                {"CVX", 0.95},
}

// aliasTable maps common informal or legacy names to tickers (~0.90)
var aliasTable = map[string]string{
	"google":          "GOOGL",
	"facebook":        "META",
	"fb":              "META",
	"meta platforms":  "META",
	"berkshire":       "BRK.B",
	"exxon":           "XOM",
	"coca cola":       "KO",
	"coke":            "KO",
	"jp morgan":       "JPM",
	"jpmorgan":        "JPM",
	"chase":           "JPM",
	"disney":          "DIS",
	"ford":            "F",
	"gm":              "GM",
	"ge":              "GE",
	"amd":             "AMD",
	"big blue":        "IBM",
	"pepsi":           "PEP",
	"p g":             "PG",
	"mickey d's":      "MCD",
	"bofa":            "BAC",
	"att":             "T",
	"at t":            "T",
	"lilly":           "LLY",
}

// legalSuffixes are trailing corporate designators stripped during
// normalization ("Apple Inc." -> "apple").
var legalSuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"corp":         true,
	"corporation":  true,
	"co":           true,
	"company":      true,
	"ltd":          true,
	"limited":      true,
	"plc":          true,
	"llc":          true,
	"group":        true,
	"holdings":     true,
	"sa":           true,
	"ag":           true,
	"nv":           true,
}

// Normalize lowercases a mention and strips casing, punctuation and
// trailing legal designators so alias and fuzzy stages compare names,
// not formatting.
func Normalize(mention string) string {
	s := strings.ToLower(strings.TrimSpace(mention))
	s = strings.NewReplacer(".", "", ",", "", "'", "", "’", "", "&", " ", "/", " ").Replace(s)
	s = strings.TrimPrefix(s, "the ")

	fields := strings.Fields(s)
	for len(fields) > 1 && legalSuffixes[fields[len(fields)-1]] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// knownNames returns every normalized name in the static tables,
// the fuzzy stage's comparison set.
func knownNames() map[string]string {
	names := make(map[string]string, len(exactTable)+len(aliasTable))
	for name, entry := range exactTable {
		names[name] = entry.Ticker
	}
	for name, ticker := range aliasTable {
		names[name] = ticker
	}
	return names
}

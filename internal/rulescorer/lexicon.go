package rulescorer

// defaultAfinnLexicon is a small, fixed subset of the AFINN-165 word list
// (valences on AFINN's native -5..5 scale). It is intentionally compact:
// AFINN is meant as a cheap, explainable counterweight to VADER rather than
// a second full lexicon.
var defaultAfinnLexicon = map[string]float64{
	"abandon":    -2,
	"abandoned":  -2,
	"abuse":      -3,
	"amazing":    4,
	"angry":      -3,
	"awesome":    4,
	"bad":        -3,
	"beautiful":  3,
	"best":       3,
	"boring":     -2,
	"brilliant":  4,
	"broken":     -2,
	"crisis":     -3,
	"cry":        -1,
	"damage":     -3,
	"delight":    3,
	"delighted":  3,
	"disaster":   -3,
	"dislike":    -2,
	"excellent":  3,
	"fail":       -2,
	"failure":    -2,
	"fantastic":  4,
	"fear":       -2,
	"fine":       1,
	"free":       1,
	"fun":        3,
	"good":       3,
	"grateful":   3,
	"great":      3,
	"happy":      3,
	"hate":       -3,
	"horrible":   -3,
	"hurt":       -2,
	"joy":        3,
	"kill":       -3,
	"love":       3,
	"lovely":     3,
	"lost":       -1,
	"nice":       2,
	"outstanding": 5,
	"panic":      -3,
	"perfect":    3,
	"poor":       -2,
	"positive":   2,
	"problem":    -2,
	"rage":       -3,
	"sad":        -2,
	"scared":     -2,
	"sick":       -2,
	"stupid":     -3,
	"success":    2,
	"superb":     5,
	"terrible":   -3,
	"terrific":   4,
	"thanks":     2,
	"trouble":    -2,
	"ugly":       -3,
	"wonderful":  4,
	"worried":    -2,
	"worst":      -3,
	"wrong":      -2,
}

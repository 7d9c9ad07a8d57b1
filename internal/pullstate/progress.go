package pullstate

import "strings"

// layerIDLength is the width of the short layer digest that prefixes
// per-layer pull output ("a1b2c3d4e5f6: Download complete").
const layerIDLength = 12

const maxLayerWeight = 5

// layerWeights scores how far a layer has come. Unknown words score 0.
var layerWeights = map[string]int{
	"Pulling fs layer":   1,
	"Waiting":            2,
	"Verifying Checksum": 3,
	"Download complete":  4,
	"Already exists":     5,
	"Pull complete":      5,
}

// Progress estimates pull completion from per-layer status lines.
// The denominator grows as layers are discovered, so the estimate can drop
// when a new layer shows up late.
type Progress struct {
	layers map[string]int
}

// NewProgress returns an empty estimate
func NewProgress() *Progress {
	return &Progress{layers: make(map[string]int)}
}

// Observe records a line of pull output. ok is false for lines that are not
// per-layer status lines; those leave the estimate unchanged.
func (p *Progress) Observe(line string) (percent int, ok bool) {
	id, word, ok := parseLayerLine(line)
	if !ok {
		return p.Percent(), false
	}
	p.layers[id] = layerWeights[word]
	return p.Percent(), true
}

// Percent returns ceil(100 * sum(weights) / (5 * layers))
func (p *Progress) Percent() int {
	if len(p.layers) == 0 {
		return 0
	}
	sum := 0
	for _, w := range p.layers {
		sum += w
	}
	total := maxLayerWeight * len(p.layers)
	return (100*sum + total - 1) / total
}

// Layers returns the number of distinct layers seen so far
func (p *Progress) Layers() int {
	return len(p.layers)
}

// parseLayerLine splits "<12 hex digits>: <status word>". Only the first
// colon is checked: the status word itself never contains one, and header
// lines such as "<tag>: Pulling from <repo>" are told apart by the hex id,
// since a tag can be exactly 12 characters long.
func parseLayerLine(line string) (id, word string, ok bool) {
	if strings.IndexByte(line, ':') != layerIDLength || !isLayerID(line[:layerIDLength]) {
		return "", "", false
	}
	return line[:layerIDLength], strings.TrimSpace(line[layerIDLength+1:]), true
}

func isLayerID(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

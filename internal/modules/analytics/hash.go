package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/advisor/internal/modules/allocation"
)

const dateLayout = "2006-01-02"

func contentHash(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// metricsKey identifies statistics by data source, holdings, window and annualization.
// Pairs are sorted so equal portfolios share a key regardless of listing order.
func metricsKey(source string, p allocation.Profile, start, end time.Time, tradingDays int) string {
	pairs := make([]string, len(p.Targets))
	for i, t := range p.Targets {
		pairs[i] = fmt.Sprintf("%s:%.10f", t.Asset, t.Weight)
	}
	sort.Strings(pairs)

	return contentHash(
		source,
		strings.Join(pairs, ","),
		start.UTC().Format(dateLayout),
		end.UTC().Format(dateLayout),
		strconv.Itoa(tradingDays),
	)
}

// reportKey extends a metrics key with every input that shapes a report.
// Only requests with both seeds fixed are deterministic enough to key.
func reportKey(metrics string, req Request) (string, bool) {
	if req.SimulationSeed == nil || req.FrontierSeed == nil {
		return "", false
	}
	return contentHash(
		metrics,
		req.Profile,
		strconv.FormatFloat(req.Investment, 'g', -1, 64),
		strconv.Itoa(req.HorizonYears),
		strconv.FormatFloat(req.Contribution, 'g', -1, 64),
		string(req.Granularity),
		strconv.Itoa(req.NumSimulations),
		strconv.Itoa(req.NumFrontierSamples),
		strconv.FormatUint(*req.SimulationSeed, 10),
		strconv.FormatUint(*req.FrontierSeed, 10),
	), true
}

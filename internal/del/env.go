package del

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Tuning knobs read from the environment.
const (
	envThreads      = "THREADS"
	envReportPeriod = "REPORT_PERIOD_MS"
)

// envU32 reads name as an unsigned 32-bit integer. Base is inferred from the
// prefix: decimal, octal with a leading 0, hex with 0x or 0X. Unset, empty,
// malformed or overflowing values yield def.
func envU32(name string, def uint32) uint32 {
	s, ok := os.LookupEnv(name)
	if !ok || s == "" {
		return def
	}
	// Base 0 would also admit 0b/0o prefixes and digit underscores; those
	// are not among the accepted forms.
	if strings.ContainsRune(s, '_') || (len(s) > 1 && s[0] == '0' && strings.ContainsRune("bBoO", rune(s[1]))) {
		return def
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return def
	}
	return uint32(v)
}

// OptionsFromEnv resolves Workers and ReportPeriod from THREADS and
// REPORT_PERIOD_MS. A zero from the environment keeps the default: zero
// workers would never drain and a zero period would spin the reporter.
func OptionsFromEnv() *Options {
	o := DefaultOptions()
	if n := envU32(envThreads, DefaultWorkers); n > 0 {
		o.Workers = int(n)
	}
	if ms := envU32(envReportPeriod, uint32(DefaultReportPeriod/time.Millisecond)); ms > 0 {
		o.ReportPeriod = time.Duration(ms) * time.Millisecond
	}
	return o
}

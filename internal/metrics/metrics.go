package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Simple Prometheus-style metrics for the pipeline engine.
// This is intentionally minimal and in-memory only.

var (
	mu             sync.RWMutex
	requestsTotal  = make(map[reqKey]int64)
	latencyMsSum   = make(map[latKey]int64)
	latencyMsCount = make(map[latKey]int64)

	transitionsTotal = make(map[transitionKey]int64)
	bulkItemsTotal   = make(map[bulkKey]int64)
	bulkRunsTotal    = make(map[string]int64)

	loadsTotal       int64
	loadFailuresTotal int64
)

type reqKey struct {
	Method string
	Path   string
	Status int
}

type latKey struct {
	Method string
	Path   string
}

type transitionKey struct {
	Target  string
	Outcome string
}

type bulkKey struct {
	Action string
	Bucket string
}

// Transition outcomes recorded by RecordTransition.
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
	OutcomeRejected   = "rejected"
)

// RecordRequest increments request counter and records latency.
func RecordRequest(method, path string, status int, latencyMs int64) {
	mu.Lock()
	defer mu.Unlock()

	rk := reqKey{Method: method, Path: path, Status: status}
	requestsTotal[rk]++

	lk := latKey{Method: method, Path: path}
	latencyMsSum[lk] += latencyMs
	latencyMsCount[lk]++
}

// RecordTransition increments the single-item transition counter for
// the requested target stage and outcome.
func RecordTransition(target string, outcome string) {
	mu.Lock()
	defer mu.Unlock()
	transitionsTotal[transitionKey{Target: target, Outcome: outcome}]++
}

// RecordBulk records one completed bulk run with its per-item
// outcome buckets.
func RecordBulk(action string, succeeded, failed, skipped int) {
	mu.Lock()
	defer mu.Unlock()

	bulkRunsTotal[action]++
	if succeeded > 0 {
		bulkItemsTotal[bulkKey{Action: action, Bucket: "succeeded"}] += int64(succeeded)
	}
	if failed > 0 {
		bulkItemsTotal[bulkKey{Action: action, Bucket: "failed"}] += int64(failed)
	}
	if skipped > 0 {
		bulkItemsTotal[bulkKey{Action: action, Bucket: "skipped"}] += int64(skipped)
	}
}

// RecordLoad counts candidate-set loads and their failures.
func RecordLoad(success bool) {
	mu.Lock()
	defer mu.Unlock()
	loadsTotal++
	if !success {
		loadFailuresTotal++
	}
}

// Export returns Prometheus-style metrics text.
func Export() string {
	mu.RLock()
	defer mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP talentboard_http_requests_total Total HTTP requests\n")
	b.WriteString("# TYPE talentboard_http_requests_total counter\n")

	// Sort keys for stable output
	var reqKeys []reqKey
	for k := range requestsTotal {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].Method != reqKeys[j].Method {
			return reqKeys[i].Method < reqKeys[j].Method
		}
		if reqKeys[i].Path != reqKeys[j].Path {
			return reqKeys[i].Path < reqKeys[j].Path
		}
		return reqKeys[i].Status < reqKeys[j].Status
	})

	for _, k := range reqKeys {
		v := requestsTotal[k]
		fmt.Fprintf(&b, "talentboard_http_requests_total{method=\"%s\",path=\"%s\",status=\"%d\"} %d\n",
			k.Method, k.Path, k.Status, v)
	}

	b.WriteString("# HELP talentboard_http_request_duration_ms_sum Total request duration in milliseconds\n")
	b.WriteString("# TYPE talentboard_http_request_duration_ms_sum counter\n")
	b.WriteString("# HELP talentboard_http_request_duration_ms_count Request count for latency metric\n")
	b.WriteString("# TYPE talentboard_http_request_duration_ms_count counter\n")

	var latKeys []latKey
	for k := range latencyMsSum {
		latKeys = append(latKeys, k)
	}
	sort.Slice(latKeys, func(i, j int) bool {
		if latKeys[i].Method != latKeys[j].Method {
			return latKeys[i].Method < latKeys[j].Method
		}
		return latKeys[i].Path < latKeys[j].Path
	})

	for _, k := range latKeys {
		sum := latencyMsSum[k]
		cnt := latencyMsCount[k]
		fmt.Fprintf(&b, "talentboard_http_request_duration_ms_sum{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, sum)
		fmt.Fprintf(&b, "talentboard_http_request_duration_ms_count{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, cnt)
	}

	// Transition metrics
	b.WriteString("# HELP talentboard_transitions_total Single-item stage transitions by target stage and outcome\n")
	b.WriteString("# TYPE talentboard_transitions_total counter\n")

	var trKeys []transitionKey
	for k := range transitionsTotal {
		trKeys = append(trKeys, k)
	}
	sort.Slice(trKeys, func(i, j int) bool {
		if trKeys[i].Target != trKeys[j].Target {
			return trKeys[i].Target < trKeys[j].Target
		}
		return trKeys[i].Outcome < trKeys[j].Outcome
	})

	for _, k := range trKeys {
		v := transitionsTotal[k]
		fmt.Fprintf(&b, "talentboard_transitions_total{target=\"%s\",outcome=\"%s\"} %d\n",
			k.Target, k.Outcome, v)
	}

	// Bulk metrics
	b.WriteString("# HELP talentboard_bulk_runs_total Bulk operations executed by action\n")
	b.WriteString("# TYPE talentboard_bulk_runs_total counter\n")

	var actions []string
	for a := range bulkRunsTotal {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	for _, a := range actions {
		fmt.Fprintf(&b, "talentboard_bulk_runs_total{action=\"%s\"} %d\n", a, bulkRunsTotal[a])
	}

	b.WriteString("# HELP talentboard_bulk_items_total Bulk operation items by action and outcome bucket\n")
	b.WriteString("# TYPE talentboard_bulk_items_total counter\n")

	var bulkKeys []bulkKey
	for k := range bulkItemsTotal {
		bulkKeys = append(bulkKeys, k)
	}
	sort.Slice(bulkKeys, func(i, j int) bool {
		if bulkKeys[i].Action != bulkKeys[j].Action {
			return bulkKeys[i].Action < bulkKeys[j].Action
		}
		return bulkKeys[i].Bucket < bulkKeys[j].Bucket
	})

	for _, k := range bulkKeys {
		v := bulkItemsTotal[k]
		fmt.Fprintf(&b, "talentboard_bulk_items_total{action=\"%s\",bucket=\"%s\"} %d\n",
			k.Action, k.Bucket, v)
	}

	// Load metrics
	b.WriteString("# HELP talentboard_loads_total Candidate set loads attempted\n")
	b.WriteString("# TYPE talentboard_loads_total counter\n")
	fmt.Fprintf(&b, "talentboard_loads_total %d\n", loadsTotal)

	b.WriteString("# HELP talentboard_load_failures_total Candidate set loads that failed\n")
	b.WriteString("# TYPE talentboard_load_failures_total counter\n")
	fmt.Fprintf(&b, "talentboard_load_failures_total %d\n", loadFailuresTotal)

	return b.String()
}

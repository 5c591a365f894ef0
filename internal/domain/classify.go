package domain

import "strings"

// ResourceKind is the classifier's resource-kind discriminant, matching the
// upstream platform's own type strings (spec.md §3, §6.3).
type ResourceKind string

const (
	ResourceKindInstance ResourceKind = "OS::Nova::Server"
	ResourceKindVolume   ResourceKind = "OS::Cinder::Volume"
)

// SpecKind disambiguates which Spec variant a Period references (spec.md §3).
type SpecKind string

const (
	SpecKindInstance SpecKind = "instance"
	SpecKindVolume   SpecKind = "volume"
)

// Verdict is the classifier's decision for one event_type (spec.md §4.2).
type Verdict int

const (
	// VerdictHandled means the event maps to a concrete resource/spec kind.
	VerdictHandled Verdict = iota
	// VerdictIgnored means the event is recognized but carries no
	// actionable state change.
	VerdictIgnored
	// VerdictUnsupported means the event_type matches no known prefix.
	VerdictUnsupported
)

// Decision is the output of Classify.
type Decision struct {
	Verdict      Verdict
	ResourceKind ResourceKind
	SpecKind     SpecKind
}

// classifierRule is one row of the event-type taxonomy table (spec.md §6.3).
// Rules are tried in order, so more specific prefixes (compute.instance.)
// must precede more general ones (compute.) — adding a resource kind is one
// table entry (spec.md §4.2 design note).
type classifierRule struct {
	matches func(eventType string) bool
	decide  func(eventType string) Decision
}

func prefixRule(prefix string, decision Decision) classifierRule {
	return classifierRule{
		matches: func(eventType string) bool { return strings.HasPrefix(eventType, prefix) },
		decide:  func(string) Decision { return decision },
	}
}

func exactRule(eventType string, decision Decision) classifierRule {
	return classifierRule{
		matches: func(et string) bool { return et == eventType },
		decide:  func(string) Decision { return decision },
	}
}

var handledInstance = Decision{Verdict: VerdictHandled, ResourceKind: ResourceKindInstance, SpecKind: SpecKindInstance}
var handledVolume = Decision{Verdict: VerdictHandled, ResourceKind: ResourceKindVolume, SpecKind: SpecKindVolume}
var ignored = Decision{Verdict: VerdictIgnored}

// classifierTable is ordered: the specific compute.instance. prefix must be
// tried before the general compute. ignore prefix (spec.md §4.2).
var classifierTable = []classifierRule{
	prefixRule("compute.instance.", handledInstance),

	// volume.usage is ignored even though it starts with "volume.";
	// the exact-match rule must be tried before the volume. prefix rule.
	exactRule("volume.usage", ignored),
	prefixRule("volume.", handledVolume),

	prefixRule("aggregate.", ignored),
	prefixRule("compute_task.", ignored),
	prefixRule("compute.", ignored),
	prefixRule("flavor.", ignored),
	prefixRule("keypair.", ignored),
	prefixRule("libvirt.", ignored),
	prefixRule("metrics.", ignored),
	prefixRule("scheduler.", ignored),
	prefixRule("server_group.", ignored),
	prefixRule("service.", ignored),
}

// Classify maps an event_type string to a Decision per the taxonomy in
// spec.md §6.3. Pure function; table-driven per the §4.2/§9 design note.
func Classify(eventType string) Decision {
	for _, rule := range classifierTable {
		if rule.matches(eventType) {
			return rule.decide(eventType)
		}
	}
	return Decision{Verdict: VerdictUnsupported}
}

package core

// IngressView is the nested event→target view IngressStage produces.
// Both levels are forgiving: Get on an unknown event, or on an unknown
// target within a known event, returns a NullLoader rather than
// panicking, and Targets on an unknown event returns nil, since downstream stages may
// reference targets a particular event never produced.
type IngressView struct {
	byEvent map[string]map[string]ArtifactLoader
}

// NewIngressView constructs an empty view ready for population via Set.
func NewIngressView() IngressView {
	return IngressView{byEvent: make(map[string]map[string]ArtifactLoader)}
}

// Set records the loader produced for (event, target).
func (v IngressView) Set(event, target string, loader ArtifactLoader) {
	row, ok := v.byEvent[event]
	if !ok {
		row = make(map[string]ArtifactLoader)
		v.byEvent[event] = row
	}
	row[target] = loader
}

// Get returns the loader for (event, target). An unknown event, or an
// unknown target within a known event, yields a NullLoader at the
// ingress path (event, "ingress", target) with an empty origin.
func (v IngressView) Get(event, target string) ArtifactLoader {
	row, ok := v.byEvent[event]
	if !ok {
		return NullLoader(NewCanonicalPath("", event, "ingress", target), ArtifactTypeTimeSeries)
	}
	loader, ok := row[target]
	if !ok {
		return NullLoader(NewCanonicalPath("", event, "ingress", target), ArtifactTypeTimeSeries)
	}
	return loader
}

// Events returns the event names this view has entries for.
func (v IngressView) Events() []string {
	names := make([]string, 0, len(v.byEvent))
	for name := range v.byEvent {
		names = append(names, name)
	}
	return names
}

// Targets returns the target names recorded for event, or nil if the
// event is unknown to this view.
func (v IngressView) Targets(event string) []string {
	row, ok := v.byEvent[event]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	return names
}

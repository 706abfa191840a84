package query

import (
	"strings"

	"github.com/fmidev/obsengine/cmn"
)

// MeasurandRegistry resolves a case-insensitive parameter name to a
// numeric measurand id, keyed by station type, per §4.6's "measurand
// references resolved by a name->id map keyed by station type."
type MeasurandRegistry struct {
	byType map[string]map[string]int
}

func NewMeasurandRegistry() *MeasurandRegistry {
	return &MeasurandRegistry{byType: make(map[string]map[string]int)}
}

// Register adds or overwrites the id for name under stationType.
func (m *MeasurandRegistry) Register(stationType, name string, id int) {
	names, ok := m.byType[stationType]
	if !ok {
		names = make(map[string]int)
		m.byType[stationType] = names
	}
	names[normalizeParam(name)] = id
}

// Resolve looks up name (case-insensitive, optional "qc_" prefix
// stripped) under stationType.
func (m *MeasurandRegistry) Resolve(stationType, name string) (int, bool) {
	names, ok := m.byType[stationType]
	if !ok {
		return 0, false
	}
	id, ok := names[normalizeParam(name)]
	return id, ok
}

func normalizeParam(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	return strings.TrimPrefix(n, cmn.QCPrefix)
}

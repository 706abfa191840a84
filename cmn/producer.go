package cmn

// ProducerInfo is one registered mobile/external data producer: its
// mirror table name and the sensor number to assume when a reading
// omits one. This directly implements the original's "encode the
// producer→table mapping as a static table keyed by producer" redesign
// instruction (see DESIGN.md) rather than a runtime-configured map.
type ProducerInfo struct {
	ID            int
	Name          string
	MirrorTable   string
	DefaultSensor int
}

// ProducerRegistry is the static producer table consulted by ingest to
// pick an upstream table.
type ProducerRegistry struct {
	byID map[int]ProducerInfo
}

// NewProducerRegistry returns the registry pre-populated with the two
// producer families the mirror already has tables for.
func NewProducerRegistry() *ProducerRegistry {
	r := &ProducerRegistry{byID: make(map[int]ProducerInfo)}
	r.register(ProducerInfo{ID: RoadProducer, Name: "roadcloud", MirrorTable: "ext_obsdata_roadcloud", DefaultSensor: DefaultSensorNo})
	r.register(ProducerInfo{ID: ForeignProducer, Name: "fmi_iot", MirrorTable: "ext_obsdata_fmi_iot", DefaultSensor: DefaultSensorNo})
	return r
}

func (r *ProducerRegistry) register(p ProducerInfo) { r.byID[p.ID] = p }

// Lookup returns the registered producer, or ErrUnknownProducer if id
// was never registered.
func (r *ProducerRegistry) Lookup(id int) (ProducerInfo, error) {
	p, ok := r.byID[id]
	if !ok {
		return ProducerInfo{}, NewError("cmn.ProducerRegistry.Lookup", ErrUnknownProducer, "producer %d", id)
	}
	return p, nil
}

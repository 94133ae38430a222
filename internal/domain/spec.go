package domain

// MapSpec is an ordered list of entries. Order is input row order and is kept
// through serialization and emission. Treat it as read-only once built.
type MapSpec struct {
	Entries []MapEntry `json:"entries" yaml:"entries"`
}

type DeviceGroup struct {
	Device  string
	Entries []MapEntry
}

// ByDevice groups entries by device. Groups come in first-seen order and
// keep the relative order of their entries.
func (s *MapSpec) ByDevice() []DeviceGroup {
	index := make(map[string]int)
	var groups []DeviceGroup

	for _, e := range s.Entries {
		i, ok := index[e.Device]
		if !ok {
			i = len(groups)
			index[e.Device] = i
			groups = append(groups, DeviceGroup{Device: e.Device})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}

	return groups
}

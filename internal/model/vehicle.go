package model

// Vehicle is a single bus.  Vehicles are reference data owned by the
// operator tooling; the booking core only reads them.
//
// Fields:
//  ID           – vehicle identifier.
//  OperatorID   – fleet operator that owns the bus.
//  Name         – display name (e.g. registration or nickname).
//  Type         – display type (e.g. "AC Sleeper").
//  SeatClass    – layout family passed to the seat layout generator.
//  SeatCapacity – optional capacity override (nil uses the class default).
type Vehicle struct {
	ID           string  `json:"id"`
	OperatorID   string  `json:"operator_id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	SeatClass    string  `json:"seat_class"`
	SeatCapacity *uint32 `json:"seat_capacity,omitempty"`
}

// Capacity returns the capacity override or 0 when unset.
func (v Vehicle) Capacity() int {
	if v.SeatCapacity == nil {
		return 0
	}
	return int(*v.SeatCapacity)
}

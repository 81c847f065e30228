package storage

// Conventional values for the status column. Stored as plain text;
// validation happens at the service boundary, never in storage.
const (
	StatusFaulty     = "faulty"
	StatusRepaired   = "repaired"
	StatusAwaitingPO = "awaiting PO"
	StatusInspected  = "inspected"
	StatusUnknown    = "unknown"
)

// Columns is the canonical schema, in file order. It is fixed at store
// creation time: a freshly created backing file carries exactly these
// columns and zero rows.
var Columns = []string{
	"id",
	"device_name",
	"device_type",
	"location",
	"status",
	"last_inspection",
	"notes",
	"assigned_to",
	"created_at",
}

// Record is one row of the device table. Every field is text; an absent
// value is an empty string, never a missing field.
type Record struct {
	ID             string `json:"id"`
	DeviceName     string `json:"device_name"`
	DeviceType     string `json:"device_type"`
	Location       string `json:"location"`
	Status         string `json:"status"`
	LastInspection string `json:"last_inspection"`
	Notes          string `json:"notes"`
	AssignedTo     string `json:"assigned_to"`
	CreatedAt      string `json:"created_at"`
}

// Field returns the value of the named column, or "" for an unknown name.
func (r Record) Field(name string) string {
	switch name {
	case "id":
		return r.ID
	case "device_name":
		return r.DeviceName
	case "device_type":
		return r.DeviceType
	case "location":
		return r.Location
	case "status":
		return r.Status
	case "last_inspection":
		return r.LastInspection
	case "notes":
		return r.Notes
	case "assigned_to":
		return r.AssignedTo
	case "created_at":
		return r.CreatedAt
	}
	return ""
}

// SetField sets the named column to value. Unknown names are ignored so
// files with extra columns load without error.
func (r *Record) SetField(name, value string) {
	switch name {
	case "id":
		r.ID = value
	case "device_name":
		r.DeviceName = value
	case "device_type":
		r.DeviceType = value
	case "location":
		r.Location = value
	case "status":
		r.Status = value
	case "last_inspection":
		r.LastInspection = value
	case "notes":
		r.Notes = value
	case "assigned_to":
		r.AssignedTo = value
	case "created_at":
		r.CreatedAt = value
	}
}

// IsColumn reports whether name is part of the canonical schema.
func IsColumn(name string) bool {
	for _, c := range Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Table is the full ordered collection of records, the unit of
// persistence. Order is file order.
type Table []Record

// Clone returns an independent copy of the table.
func (t Table) Clone() Table {
	if t == nil {
		return Table{}
	}
	out := make(Table, len(t))
	copy(out, t)
	return out
}

package models

// Programme is the course type of a stream.
type Programme string

const (
	ProgrammeHonours Programme = "HONOURS"
	ProgrammeGeneral Programme = "GENERAL"
	ProgrammeRegular Programme = "REGULAR"
)

// Framework is the curriculum regulation a stream follows.
type Framework string

const (
	FrameworkCBCS Framework = "CBCS"
	FrameworkCCF  Framework = "CCF"
)

// Degree is a named undergraduate degree such as BCOM or BSC.
type Degree struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Discipline string `db:"discipline" json:"discipline"`
}

// Stream is the (degree, programme, framework) tuple marksheets are filed under.
type Stream struct {
	ID         string    `db:"id" json:"id"`
	DegreeID   string    `db:"degree_id" json:"degree_id"`
	DegreeName string    `db:"degree_name" json:"degree_name"`
	Discipline string    `db:"discipline" json:"discipline"`
	Programme  Programme `db:"programme" json:"programme"`
	Framework  Framework `db:"framework" json:"framework"`
}

// Key identifies the stream inside an import bucket.
func (s Stream) Key() StreamKey {
	return StreamKey{Degree: s.DegreeName, Programme: s.Programme, Framework: s.Framework}
}

// StreamKey is the natural key of a stream.
type StreamKey struct {
	Degree    string    `json:"degree"`
	Programme Programme `json:"programme"`
	Framework Framework `json:"framework"`
}

// String renders the key for logs and failure reports.
func (k StreamKey) String() string {
	return k.Degree + "/" + string(k.Programme) + "/" + string(k.Framework)
}

package seq

// ID is the permanent identifier of a record, assigned once at load time.
type ID int

// Entry is a header/sequence pair as produced by a file parser.
type Entry struct {
	Header   string
	Sequence string
}

type Record struct {
	ID       ID
	Header   string
	Sequence string
}

// FromEntries assigns ids 0..N-1 in file order.
func FromEntries(entries []Entry) []Record {
	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = Record{ID: ID(i), Header: e.Header, Sequence: e.Sequence}
	}
	return records
}

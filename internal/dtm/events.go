package dtm

// EventFunc receives named model events with a small payload, e.g. one
// "slide" event per window move. The model does not own the sink and
// never blocks on it being nil.
type EventFunc func(name string, fields map[string]any)

func (a *Model) emit(name string, fields map[string]any) {
	if a.events != nil {
		a.events(name, fields)
	}
}

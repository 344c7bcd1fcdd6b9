package recommendation

import "github.com/yanqian/krishi-vaani/internal/domain/environment"

// Request is the soil and weather form as submitted. A nil field was left
// empty; zero is a valid measurement.
type Request struct {
	N           *float64 `json:"N"`
	P           *float64 `json:"P"`
	K           *float64 `json:"K"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	PH          *float64 `json:"ph"`
	Rainfall    *float64 `json:"rainfall"`
}

// Features is a validated request, in the shape the prediction service expects.
type Features struct {
	N           float64 `json:"N"`
	P           float64 `json:"P"`
	K           float64 `json:"K"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"ph"`
	Rainfall    float64 `json:"rainfall"`
}

// Result is rendered in the recommendation slot. On failure Crop is empty and
// Message carries the localized failure text.
type Result struct {
	Crop     string    `json:"crop,omitempty"`
	Message  string    `json:"message,omitempty"`
	Features *Features `json:"features,omitempty"`
}

// Config wires runtime settings for the recommendation domain.
type Config struct {
	Prompt string
}

// Seed fills temperature, humidity and rainfall from env where the request
// left them empty. Values typed by the user are kept.
func (r Request) Seed(env environment.Context) Request {
	out := r
	fill := func(dst **float64, reading environment.Reading) {
		if *dst != nil {
			return
		}
		if v, ok := reading.Float(); ok {
			*dst = &v
		}
	}
	fill(&out.Temperature, env.Temperature)
	fill(&out.Humidity, env.Humidity)
	fill(&out.Rainfall, env.Rainfall)
	return out
}

type field struct {
	name  string
	value func(Request) *float64
}

// fields is the validation order.
var fields = []field{
	{"N", func(r Request) *float64 { return r.N }},
	{"P", func(r Request) *float64 { return r.P }},
	{"K", func(r Request) *float64 { return r.K }},
	{"temperature", func(r Request) *float64 { return r.Temperature }},
	{"humidity", func(r Request) *float64 { return r.Humidity }},
	{"ph", func(r Request) *float64 { return r.PH }},
	{"rainfall", func(r Request) *float64 { return r.Rainfall }},
}

// MissingField returns the first empty field in form order, or "" when the
// request is complete.
func (r Request) MissingField() string {
	for _, f := range fields {
		if f.value(r) == nil {
			return f.name
		}
	}
	return ""
}

// Features converts a complete request. Callers check MissingField first.
func (r Request) Features() Features {
	deref := func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	}
	return Features{
		N:           deref(r.N),
		P:           deref(r.P),
		K:           deref(r.K),
		Temperature: deref(r.Temperature),
		Humidity:    deref(r.Humidity),
		PH:          deref(r.PH),
		Rainfall:    deref(r.Rainfall),
	}
}

package types

// Endpoint is a logical service name bound to its JMX-style status URL.
type Endpoint struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

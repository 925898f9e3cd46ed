package telemetry

import (
	"sort"

	otellog "go.opentelemetry.io/otel/log"
)

// Context carries the properties and measurements collected while one
// command runs. Components add to it as they work; the recorder attaches
// everything to the events it emits for that command.
type Context struct {
	Properties   map[string]string
	Measurements map[string]float64
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{
		Properties:   make(map[string]string),
		Measurements: make(map[string]float64),
	}
}

// SetProperty records a string property. Safe on a nil receiver.
func (c *Context) SetProperty(key, value string) {
	if c == nil {
		return
	}
	if c.Properties == nil {
		c.Properties = make(map[string]string)
	}
	c.Properties[key] = value
}

// SetMeasurement records a numeric measurement. Safe on a nil receiver.
func (c *Context) SetMeasurement(key string, value float64) {
	if c == nil {
		return
	}
	if c.Measurements == nil {
		c.Measurements = make(map[string]float64)
	}
	c.Measurements[key] = value
}

// logKVs converts the context to log attributes in key order.
func (c *Context) logKVs() []otellog.KeyValue {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Properties))
	for k := range c.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kvs := make([]otellog.KeyValue, 0, len(c.Properties)+len(c.Measurements))
	for _, k := range keys {
		kvs = append(kvs, otellog.String("prop."+k, c.Properties[k]))
	}

	keys = keys[:0]
	for k := range c.Measurements {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kvs = append(kvs, otellog.Float64("measure."+k, c.Measurements[k]))
	}
	return kvs
}

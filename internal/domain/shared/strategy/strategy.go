package strategy

// Strategy identifies a pluggable costing rule
type Strategy interface {
	Name() string
	Description() string
}

// Descriptor is embedded by costing strategies so that Name, Method and the
// registry key can never disagree.
type Descriptor struct {
	method      CostMethod
	description string
}

// NewDescriptor creates the descriptor of the strategy implementing method
func NewDescriptor(method CostMethod, description string) Descriptor {
	return Descriptor{method: method, description: description}
}

// Name returns the method name
func (d Descriptor) Name() string {
	return string(d.method)
}

// Method returns the costing method the strategy implements
func (d Descriptor) Method() CostMethod {
	return d.method
}

// Description returns a human-readable description
func (d Descriptor) Description() string {
	return d.description
}

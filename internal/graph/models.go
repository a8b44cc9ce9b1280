package graph

// Partition tags which side of the supply chain a node belongs to.
type Partition int

const (
	PartitionSupplier Partition = 1
	PartitionCategory Partition = 2
	PartitionCustomer Partition = 3
)

func (p Partition) String() string {
	switch p {
	case PartitionSupplier:
		return "supplier"
	case PartitionCategory:
		return "category"
	case PartitionCustomer:
		return "customer"
	}
	return "unknown"
}

// prefix is the id namespace of each partition.
func (p Partition) prefix() string {
	switch p {
	case PartitionSupplier:
		return "S:"
	case PartitionCategory:
		return "C:"
	default:
		return "U:"
	}
}

// Graph is the payload handed to a force-directed layout.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
	Meta  Meta   `json:"meta"`
}

// Node is one supplier, category or customer.
type Node struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Partition Partition `json:"partition"`
	// Weight is the summed quantity of every row touching the node.
	Weight int64 `json:"value"`
	// Radius is a display hint: sqrt(weight) clamped to [3, 20].
	Radius float64 `json:"radius"`
}

// Link carries the quantity of the single row that produced it.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int64  `json:"value"` // D3 uses "value"
	// Width is a display hint: sqrt(weight) / 2.
	Width float64 `json:"width"`
}

type Meta struct {
	MaxNodes int   `json:"max_nodes"`
	Stats    Stats `json:"stats"`
}

// Stats compares the candidate graph with what survived truncation.
type Stats struct {
	TotalNodes    int `json:"total_nodes"`
	RetainedNodes int `json:"retained_nodes"`
	TotalLinks    int `json:"total_links"`
	RetainedLinks int `json:"retained_links"`
}

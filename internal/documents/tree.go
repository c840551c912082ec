package documents

import (
	"path"
	"strings"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

// Node is one folder of a document tree. The root node names the entity
// type and is not itself a storage folder.
type Node struct {
	Name     string `json:"name"`
	Children []Node `json:"children"`
}

func leaf(name string) Node { return Node{Name: name, Children: []Node{}} }

func folder(name string, children ...Node) Node {
	if children == nil {
		children = []Node{}
	}
	return Node{Name: name, Children: children}
}

// DefaultTree is the folder hierarchy used until one is saved for t.
func DefaultTree(t models.EntityType) Node {
	switch t {
	case models.EntityBuilding:
		return folder("Building", leaf("Legal Documents"), leaf("Photos"), leaf("Plans"))
	case models.EntityOffice:
		return folder("Office",
			folder("Photos", leaf("Exterior"), leaf("Interior")),
			leaf("Plans"),
			leaf("Equipment"),
		)
	case models.EntityTenant:
		return folder("Tenant", leaf("ID Document"), leaf("Bank Documents"), leaf("Insurance"))
	case models.EntityLease:
		return folder("Lease", leaf("Signed Lease"), leaf("Appendices"), leaf("Amendments"))
	case models.EntityPayment:
		return folder("Payment", leaf("Receipts"), leaf("Supporting Documents"))
	default:
		return folder(string(t))
	}
}

// FlattenTree lists the storage path of every folder below the root,
// parents before children.
func FlattenTree(tree Node) []string {
	var out []string
	var walk func(prefix string, n Node)
	walk = func(prefix string, n Node) {
		for _, c := range n.Children {
			p := path.Join(prefix, c.Name)
			out = append(out, p)
			walk(p, c)
		}
	}
	walk("", tree)
	return out
}

// ValidateTree checks that every folder has a usable, sibling-unique name.
func ValidateTree(tree Node) error {
	if strings.TrimSpace(tree.Name) == "" {
		return repository.NewValidationError("tree", "the root folder needs a name")
	}
	var check func(prefix string, n Node) error
	check = func(prefix string, n Node) error {
		seen := make(map[string]bool, len(n.Children))
		for _, c := range n.Children {
			name := strings.TrimSpace(c.Name)
			switch {
			case name == "":
				return repository.NewValidationError("tree", "folder under %q has no name", prefix)
			case name == "." || name == ".." || strings.ContainsAny(name, `/\`):
				return repository.NewValidationError("tree", "invalid folder name %q", c.Name)
			case seen[strings.ToLower(name)]:
				return repository.NewValidationError("tree", "duplicate folder %q under %q", c.Name, prefix)
			}
			seen[strings.ToLower(name)] = true
			if err := check(path.Join(prefix, name), c); err != nil {
				return err
			}
		}
		return nil
	}
	return check("", tree)
}

// children returns the names of the folders directly below folderPath.
func (n Node) children(folderPath string) []string {
	cur := n
	if folderPath != "" {
		for _, part := range strings.Split(folderPath, "/") {
			found := false
			for _, c := range cur.Children {
				if c.Name == part {
					cur, found = c, true
					break
				}
			}
			if !found {
				return nil
			}
		}
	}
	names := make([]string, 0, len(cur.Children))
	for _, c := range cur.Children {
		names = append(names, c.Name)
	}
	return names
}

// ParseEntityType accepts the five entity types documents attach to.
func ParseEntityType(s string) (models.EntityType, error) {
	t := models.EntityType(s)
	if !t.Valid() {
		return "", repository.NewValidationError("entity_type", "unknown entity type %q", s)
	}
	return t, nil
}

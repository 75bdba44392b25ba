package results

import (
	"sort"
)

// Tree node types.
const (
	NodeRuntime      = "runtime"
	NodeInstanceType = "instance_type"
	NodeModel        = "model"
)

// TreeNode is one level of the runtime -> instance type -> model tree.
// Count is the number of records below the node. Model leaves also carry
// their identity fields.
type TreeNode struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Type     string      `json:"type"`
	Count    int         `json:"count"`
	Children []*TreeNode `json:"children,omitempty"`

	Runtime      string `json:"runtime,omitempty"`
	InstanceType string `json:"instance_type,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
}

// Tree groups the snapshot by runtime, instance type and model. Children
// are sorted by label at every level.
func (d *Dataset) Tree() []*TreeNode {
	counts := map[string]map[string]map[string]int{}
	for i := range d.records {
		r := &d.records[i]
		its, ok := counts[r.Runtime]
		if !ok {
			its = map[string]map[string]int{}
			counts[r.Runtime] = its
		}
		models, ok := its[r.InstanceType]
		if !ok {
			models = map[string]int{}
			its[r.InstanceType] = models
		}
		models[r.ModelName]++
	}

	tree := make([]*TreeNode, 0, len(counts))
	for _, rt := range sortedKeys(counts) {
		rtNode := &TreeNode{ID: rt, Label: rt, Type: NodeRuntime}
		for _, it := range sortedKeys(counts[rt]) {
			itNode := &TreeNode{ID: rt + "--" + it, Label: it, Type: NodeInstanceType}
			for _, m := range sortedKeys(counts[rt][it]) {
				n := counts[rt][it][m]
				itNode.Children = append(itNode.Children, &TreeNode{
					ID:           rt + "--" + it + "--" + m,
					Label:        m,
					Type:         NodeModel,
					Count:        n,
					Runtime:      rt,
					InstanceType: it,
					ModelName:    m,
				})
				itNode.Count += n
			}
			rtNode.Children = append(rtNode.Children, itNode)
			rtNode.Count += itNode.Count
		}
		tree = append(tree, rtNode)
	}
	return tree
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

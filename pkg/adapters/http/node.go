package http

import (
	"fmt"

	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// DecodeNode normalises a tree-mode node payload into a domain.Node.
//
// Two shapes are accepted: the raw node, whose "type" is the node type, and
// the question view, where "type" is "question" and "question_type" carries
// the node type. Options may name their successor "next" or "next_node_id".
func DecodeNode(data map[string]any) (domain.Node, error) {
	payload := make(map[string]any, len(data))
	for k, v := range data {
		payload[k] = v
	}

	if t, _ := payload["type"].(string); t == "question" || t == "" {
		if qt, ok := payload["question_type"].(string); ok && qt != "" {
			payload["type"] = qt
		}
	}
	delete(payload, "question_type")

	if opts, ok := payload["options"].([]any); ok {
		normalised := make([]any, 0, len(opts))
		for _, raw := range opts {
			opt, ok := raw.(map[string]any)
			if !ok {
				normalised = append(normalised, raw)
				continue
			}
			copied := make(map[string]any, len(opt))
			for k, v := range opt {
				copied[k] = v
			}
			if next, _ := copied["next"].(string); next == "" {
				if legacy, ok := copied["next_node_id"]; ok {
					copied["next"] = legacy
				}
			}
			delete(copied, "next_node_id")
			normalised = append(normalised, copied)
		}
		payload["options"] = normalised
	}

	var node domain.Node
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &node,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return domain.Node{}, fmt.Errorf("failed to create node decoder: %w", err)
	}
	if err := decoder.Decode(payload); err != nil {
		return domain.Node{}, fmt.Errorf("failed to decode node: %w", err)
	}

	switch node.Type {
	case domain.NodeTypeBoolean, domain.NodeTypeMultipleChoice, domain.NodeTypeNumber, domain.NodeTypeResult:
	default:
		return domain.Node{}, fmt.Errorf("unknown node type %q", node.Type)
	}
	return node, nil
}

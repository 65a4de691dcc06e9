package agentstore

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
)

func cloneSnapshot(in models.Snapshot) models.Snapshot {
	out := models.Snapshot{
		Agents:          make([]models.Agent, 0, len(in.Agents)),
		Recommendations: append([]models.Recommendation{}, in.Recommendations...),
		AutomationRules: make([]models.AutomationRule, 0, len(in.AutomationRules)),
		Tasks:           make([]models.AgentTask, 0, len(in.Tasks)),
	}
	for _, a := range in.Agents {
		out.Agents = append(out.Agents, cloneAgent(a))
	}
	for _, r := range in.AutomationRules {
		out.AutomationRules = append(out.AutomationRules, cloneRule(r))
	}
	for _, t := range in.Tasks {
		out.Tasks = append(out.Tasks, cloneTask(t))
	}
	return out
}

func cloneAgent(a models.Agent) models.Agent {
	if a.Capabilities != nil {
		a.Capabilities = append([]string{}, a.Capabilities...)
	}
	a.LastAction = clonePtr(a.LastAction)
	a.LastActionTime = clonePtr(a.LastActionTime)
	a.Confidence = clonePtr(a.Confidence)
	return a
}

func cloneRule(r models.AutomationRule) models.AutomationRule {
	if r.Conditions != nil {
		r.Conditions = append([]string{}, r.Conditions...)
	}
	if r.Actions != nil {
		r.Actions = append([]string{}, r.Actions...)
	}
	r.LastTriggered = clonePtr(r.LastTriggered)
	return r
}

func cloneTask(t models.AgentTask) models.AgentTask {
	t.Data = cloneRaw(t.Data)
	t.Result = cloneRaw(t.Result)
	t.CompletedAt = clonePtr(t.CompletedAt)
	return t
}

func cloneRaw(b json.RawMessage) json.RawMessage {
	if b == nil {
		return nil
	}
	return append(json.RawMessage{}, b...)
}

// compactRaw copies b with insignificant whitespace removed so a payload reads back from a
// saved snapshot byte for byte. Empty payloads become nil; invalid JSON is copied unchanged.
func compactRaw(b json.RawMessage) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return cloneRaw(b)
	}
	return json.RawMessage(buf.Bytes())
}

func clonePtr[T string | float64 | time.Time](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

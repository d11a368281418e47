package bounty

// AgentProfile tracks the single outstanding claim an agent may hold. A zero
// ActiveBounty means the agent is unlocked. Profiles are created lazily on
// first claim and never destroyed.
type AgentProfile struct {
	Owner        [20]byte `json:"owner"`
	ActiveBounty [32]byte `json:"activeBounty"`
}

// HasActive reports whether the agent is currently locked to a bounty.
func (a *AgentProfile) HasActive() bool {
	return a != nil && a.ActiveBounty != ([32]byte{})
}

// Clone returns a copy callers can mutate without affecting the stored record.
func (a *AgentProfile) Clone() *AgentProfile {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

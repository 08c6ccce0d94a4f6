package bot

// NewAgent builds an agent for the given identity, wired to the standard
// strategy.
func NewAgent(identity BotIdentity) *Agent {
	return &Agent{
		ID:       identity.UserID,
		Name:     identity.DisplayName,
		Strategy: &StandardBrain{},
	}
}

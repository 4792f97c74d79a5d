package entity

import "testing"

func TestConnectionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to ConnectionStatus
		want     bool
	}{
		{StatusPending, StatusChatActive, true},
		{StatusPending, StatusDeclined, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusChatRemovedBySender, false},
		{StatusChatActive, StatusChatRemovedBySender, true},
		{StatusChatActive, StatusChatRemovedByReceiver, true},
		{StatusChatActive, StatusPending, false},
		{StatusDeclined, StatusPending, false},
		{StatusCancelled, StatusChatActive, false},
		{StatusChatRemovedByReceiver, StatusChatActive, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConnectionStatus_IsTerminal(t *testing.T) {
	for _, s := range []ConnectionStatus{StatusDeclined, StatusCancelled, StatusChatRemovedBySender, StatusChatRemovedByReceiver} {
		if !s.IsTerminal() {
			t.Errorf("%v.IsTerminal() = false, want true", s)
		}
	}
	for _, s := range []ConnectionStatus{StatusPending, StatusChatActive} {
		if s.IsTerminal() {
			t.Errorf("%v.IsTerminal() = true, want false", s)
		}
	}
}

func TestConnection_Parties(t *testing.T) {
	c := Connection{SenderID: "s", ReceiverID: "r"}

	if !c.IsParty("s") || !c.IsParty("r") {
		t.Error("IsParty() should accept both parties")
	}
	if c.IsParty("x") || c.IsParty("") {
		t.Error("IsParty() should reject strangers and empty ids")
	}
	if c.PartnerOf("s") != "r" || c.PartnerOf("r") != "s" || c.PartnerOf("x") != "" {
		t.Error("PartnerOf() mismatch")
	}
}

func TestConnection_ProposalHelpers(t *testing.T) {
	c := Connection{}
	if c.ProposalStatus() != ProposalNone {
		t.Errorf("ProposalStatus() = %v, want none", c.ProposalStatus())
	}
	if c.LastActionBy() != "" {
		t.Errorf("LastActionBy() = %v, want empty", c.LastActionBy())
	}

	actor := "r"
	c.DateProposalStatus = ProposalModified
	c.DateProposalLastActionBy = &actor
	if !c.ProposalStatus().InFlight() {
		t.Error("modified proposal should be in flight")
	}
	if ProposalAccepted.InFlight() || ProposalRejected.InFlight() || ProposalNone.InFlight() {
		t.Error("settled proposals should not be in flight")
	}
	if c.LastActionBy() != "r" {
		t.Errorf("LastActionBy() = %v, want r", c.LastActionBy())
	}
}

func TestMessageType_IsUserContent(t *testing.T) {
	if !MessageText.IsUserContent() || !MessageImage.IsUserContent() {
		t.Error("text and image are user content")
	}
	if MessageDateProposal.IsUserContent() || MessageDateResponse.IsUserContent() {
		t.Error("date messages are system content")
	}
}

package selectors

// DefaultSeeds is the baseline locator knowledge shipped with the binary.
// These reflect the markup the target application rendered at the time of
// writing; the agent layers learned candidates on top as the UI drifts.
func DefaultSeeds() SeedTable {
	return SeedTable{
		MessageCTA: {
			`button[aria-label^="Message"]`,
			`a[aria-label^="Message"]`,
			`button[aria-label^="Enviar mensaje"]`,
			`div[class*="profile-actions"] button[class*="message"]`,
		},
		ConversationRoot: {
			`div[class*="msg-overlay-conversation-bubble"]`,
			`aside[class*="msg-overlay"] div[class*="conversation-bubble"]`,
			`div[class*="msg-convo-wrapper"]`,
			`div[role="dialog"][class*="messag"]`,
		},
		ConversationItems: {
			`li[class*="msg-s-message-list__event"]`,
			`div[class*="msg-s-event-listitem__body"]`,
			`div[class*="message-list"] li`,
			`div[class*="event-listitem"] p`,
		},
		MessageTextbox: {
			`div[class*="msg-form__contenteditable"][contenteditable="true"]`,
			`div[role="textbox"][contenteditable="true"]`,
		},
		SendButton: {
			`button[class*="msg-form__send-button"]`,
			`button[type="submit"][class*="send"]`,
		},
		ConnectCTA: {
			`button[aria-label^="Invite"]`,
			`button[aria-label^="Connect"]`,
			`button[aria-label^="Conectar"]`,
		},
		ConnectNote: {
			`textarea[name="message"]`,
			`textarea[id*="custom-message"]`,
		},
	}
}

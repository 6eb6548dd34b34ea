package mailer

import (
	"fmt"
	"net/url"
	"strings"
)

// Link builds a front-end link carrying a token.
func Link(publicURL, path, token string) string {
	return strings.TrimRight(publicURL, "/") + path + "?token=" + url.QueryEscape(token)
}

func VerificationEmail(to, name, shop, link string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Verify your email for %s", shop),
		Text: fmt.Sprintf("Hello %s,\n\nConfirm your email address by opening this link:\n%s\n\n"+
			"If you did not create an account you can ignore this message.\n", name, link),
	}
}

func SignInLinkEmail(to, shop, link string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Sign in to %s", shop),
		Text:    fmt.Sprintf("Open this link to sign in:\n%s\n\nThe link can be used until it expires.\n", link),
	}
}

func InviteEmail(to, role, shop, link string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("You have been invited to %s", shop),
		Text: fmt.Sprintf("You have been invited to join %s as %s.\n\nAccept the invitation here:\n%s\n",
			shop, role, link),
	}
}

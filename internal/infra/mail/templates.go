package mail

import (
	"fmt"
	"html"
	"strings"

	"datesshop/internal/domain/model"
)

func ContactConfirmation(m model.ContactMessage) Message {
	return Message{
		To:      m.Email,
		Subject: "We received your message",
		HTMLBody: fmt.Sprintf(
			"<p>Hi %s,</p><p>Thank you for contacting us. We will get back to you shortly.</p><p><em>%s</em></p>",
			html.EscapeString(m.Name), html.EscapeString(m.Subject),
		),
		TextBody: fmt.Sprintf("Hi %s,\n\nThank you for contacting us. We will get back to you shortly.\n\n%s", m.Name, m.Subject),
	}
}

func ContactNotification(inbox string, m model.ContactMessage) Message {
	return Message{
		To:      inbox,
		Subject: "New contact message: " + m.Subject,
		HTMLBody: fmt.Sprintf(
			"<p><strong>%s</strong> &lt;%s&gt; %s</p><p>%s</p>",
			html.EscapeString(m.Name), html.EscapeString(m.Email), html.EscapeString(m.Phone),
			strings.ReplaceAll(html.EscapeString(m.Message), "\n", "<br>"),
		),
		TextBody: fmt.Sprintf("%s <%s> %s\n\n%s", m.Name, m.Email, m.Phone, m.Message),
	}
}

func OrderConfirmation(o model.Order, items []model.OrderItem) Message {
	var hb, tb strings.Builder
	hb.WriteString("<p>Thank you for your order.</p><table>")
	for _, it := range items {
		line := model.FormatMoney(it.LineTotal(), o.Currency)
		fmt.Fprintf(&hb, "<tr><td>%s</td><td>%d</td><td>%s</td></tr>", html.EscapeString(it.ProductNameEnSnapshot), it.Quantity, line)
		fmt.Fprintf(&tb, "%s x%d  %s\n", it.ProductNameEnSnapshot, it.Quantity, line)
	}
	total := model.FormatMoney(o.TotalPrice, o.Currency)
	fmt.Fprintf(&hb, "</table><p><strong>Total: %s</strong></p>", total)
	fmt.Fprintf(&tb, "\nTotal: %s\n", total)

	return Message{
		To:       o.Email,
		Subject:  fmt.Sprintf("Order #%d confirmed", o.ID),
		HTMLBody: hb.String(),
		TextBody: "Thank you for your order.\n\n" + tb.String(),
	}
}

func SubscriptionWelcome(s model.EmailSubscription, unsubscribeURL string) Message {
	return Message{
		To:      s.Email,
		Subject: "Welcome to our newsletter",
		HTMLBody: fmt.Sprintf(
			"<p>Thanks for subscribing.</p><p><a href=\"%s\">Unsubscribe</a></p>",
			html.EscapeString(unsubscribeURL),
		),
		TextBody: "Thanks for subscribing.\n\nUnsubscribe: " + unsubscribeURL,
	}
}

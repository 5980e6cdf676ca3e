// Package toast builds Windows toast markup and the PowerShell program that
// displays it.
package toast

import (
	"fmt"
	"strings"

	"github.com/example/nativenotify/internal/notify"
)

const (
	AudioDefault = "ms-winsoundevent:Notification.Default"
	AudioAlarm   = "ms-winsoundevent:Notification.Looping.Alarm"
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape replaces the five XML metacharacters with entity references.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Document returns the ToastGeneric XML for req.
func Document(req notify.Request) string {
	var b strings.Builder

	duration := "long"
	if req.Urgency == notify.UrgencyLow {
		duration = "short"
	}
	fmt.Fprintf(&b, `<toast duration="%s"`, duration)
	if req.Urgency == notify.UrgencyCritical {
		b.WriteString(` scenario="urgent"`)
	}
	b.WriteString(`>`)

	b.WriteString(`<visual><binding template="ToastGeneric">`)
	fmt.Fprintf(&b, `<text>%s</text>`, Escape(req.Title))
	if req.Body != "" {
		fmt.Fprintf(&b, `<text>%s</text>`, Escape(req.Body))
	}
	if req.Icon.Kind == notify.IconFile || req.Icon.Kind == notify.IconURL {
		fmt.Fprintf(&b, `<image placement="appLogoOverride" src="%s"/>`, Escape(req.Icon.Value))
	}
	b.WriteString(`</binding></visual>`)

	if len(req.Actions) > 0 {
		b.WriteString(`<actions>`)
		for _, a := range req.Actions {
			fmt.Fprintf(&b, `<action content="%s" arguments="%s"/>`, Escape(a.Label), Escape(a.ID))
		}
		b.WriteString(`</actions>`)
	}

	if req.Urgency == notify.UrgencyCritical {
		fmt.Fprintf(&b, `<audio src="%s" loop="true"/>`, AudioAlarm)
	} else {
		fmt.Fprintf(&b, `<audio src="%s"/>`, AudioDefault)
	}
	b.WriteString(`</toast>`)
	return b.String()
}

// Quote returns s as a single-quoted PowerShell string literal.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Script returns a PowerShell program that shows the toast document under
// appID. A toast with the same tag and group replaces an earlier one.
func Script(appID, tag, group, xml string) string {
	var b strings.Builder
	b.WriteString(`[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType=WindowsRuntime] > $null; `)
	b.WriteString(`[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType=WindowsRuntime] > $null; `)
	b.WriteString(`$xml = New-Object Windows.Data.Xml.Dom.XmlDocument; `)
	fmt.Fprintf(&b, `$xml.LoadXml(%s); `, Quote(xml))
	b.WriteString(`$toast = [Windows.UI.Notifications.ToastNotification]::new($xml); `)
	if tag != "" {
		fmt.Fprintf(&b, `$toast.Tag = %s; `, Quote(tag))
	}
	if group != "" {
		fmt.Fprintf(&b, `$toast.Group = %s; `, Quote(group))
	}
	fmt.Fprintf(&b, `[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier(%s).Show($toast);`, Quote(appID))
	return b.String()
}

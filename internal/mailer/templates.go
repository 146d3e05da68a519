package mailer

import (
	"html/template"
	"strings"
	"time"
)

var campaignTmpl = template.Must(template.New("campaign").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333;">{{.Subject}}</h1>
  <div style="white-space: pre-wrap; line-height: 1.6;">{{.Content}}</div>
  <hr style="margin: 20px 0; border: none; border-top: 1px solid #eee;">
  <p style="color: #666; font-size: 12px;">Esta é uma campanha de email da ABNP.</p>
</div>`))

// RenderCampaign wraps a campaign's subject and body in the branded shell.
func RenderCampaign(subject, content string) (string, error) {
	var b strings.Builder
	err := campaignTmpl.Execute(&b, struct {
		Subject string
		Content string
	}{subject, content})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

var roleNames = map[string]string{
	"admin":     "Administrador",
	"moderator": "Moderador",
	"user":      "Usuário",
}

// RoleName maps a role key to its display name; unknown roles pass through.
func RoleName(role string) string {
	if name, ok := roleNames[role]; ok {
		return name
	}
	return role
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #3b82f6 0%, #8b5cf6 100%); color: white; padding: 30px; border-radius: 10px 10px 0 0; text-align: center;">
    <h1 style="margin: 0;">Bem-vindo à ABNP!</h1>
    <p style="margin: 10px 0 0 0;">Academia Brasileira de Neurociência Política</p>
  </div>
  <div style="background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px;">
    <p>Olá <strong>{{.DisplayName}}</strong>,</p>
    <p>Você foi convidado para fazer parte da plataforma com o papel de <strong>{{.RoleName}}</strong>.</p>
    <div style="background: white; border: 2px solid #e5e7eb; border-radius: 8px; padding: 20px; margin: 20px 0;">
      <div style="font-weight: 600; color: #6b7280; font-size: 12px; text-transform: uppercase;">Email</div>
      <div style="font-size: 18px; color: #1f2937;">{{.Email}}</div>
    </div>
    <div style="background: #fef3c7; border: 2px solid #fbbf24; border-radius: 8px; padding: 20px; margin: 20px 0;">
      <div style="font-weight: 600; color: #6b7280; font-size: 12px; text-transform: uppercase;">Senha Temporária</div>
      <div style="font-size: 18px; color: #92400e; font-family: 'Courier New', monospace;">{{.TempPassword}}</div>
      <div style="color: #92400e; font-size: 14px; margin-top: 10px;">Recomendamos alterar sua senha após o primeiro login.</div>
    </div>
  </div>
  <div style="text-align: center; color: #6b7280; font-size: 14px; margin-top: 30px;">
    <p><strong>Academia Brasileira de Neurociência Política</strong></p>
    <p style="font-size: 12px;">© {{.Year}} ABNP. Todos os direitos reservados.</p>
  </div>
</body>
</html>`))

// RenderWelcome builds the invitation email sent with temporary credentials.
func RenderWelcome(email, displayName, tempPassword, role string) (string, error) {
	var b strings.Builder
	err := welcomeTmpl.Execute(&b, struct {
		Email        string
		DisplayName  string
		TempPassword string
		RoleName     string
		Year         int
	}{email, displayName, tempPassword, RoleName(role), time.Now().Year()})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

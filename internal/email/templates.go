package email

import "strings"

// Plantillas HTML para correos de OTP. Los placeholders {{otp}} y {{email}}
// se reemplazan al momento del envio.
const verifyTemplate = `<div style="font-family:sans-serif;max-width:480px;margin:0 auto">
  <h2>Verifica tu cuenta</h2>
  <p>Estas intentando verificar la cuenta asociada a <strong>{{email}}</strong>.</p>
  <p>Usa el siguiente codigo para completar la verificacion:</p>
  <p style="font-size:28px;letter-spacing:6px;font-weight:bold">{{otp}}</p>
  <p>El codigo expira en 24 horas.</p>
</div>`

const resetTemplate = `<div style="font-family:sans-serif;max-width:480px;margin:0 auto">
  <h2>Restablecer contrase&ntilde;a</h2>
  <p>Recibimos una solicitud para restablecer la contrase&ntilde;a de <strong>{{email}}</strong>.</p>
  <p>Usa el siguiente codigo para continuar:</p>
  <p style="font-size:28px;letter-spacing:6px;font-weight:bold">{{otp}}</p>
  <p>El codigo expira en 15 minutos. Si no fuiste tu, ignora este correo.</p>
</div>`

func renderTemplate(tpl, code, toEmail string) string {
	out := strings.ReplaceAll(tpl, "{{otp}}", code)
	return strings.ReplaceAll(out, "{{email}}", toEmail)
}

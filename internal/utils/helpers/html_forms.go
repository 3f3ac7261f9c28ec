package helpers

import (
	"fmt"
)

func BuildSimpleHTML(title, body string) string {
	return fmt.Sprintf(`
<html>
  <body style="font-family:Arial,sans-serif; background:#f9f9f9;">
    <table width="100%%" cellpadding="0" cellspacing="0" bgcolor="#f9f9f9">
      <tr>
        <td align="center" style="padding:32px 0;">
          <table width="500" bgcolor="#fff" cellpadding="24" cellspacing="0" style="border-radius:8px; box-shadow:0 1px 6px #eee;">
            <tr>
              <td>
                <h2 style="color:#2d74da; margin-top:0;">%s</h2>
                <div style="font-size:16px; color:#222;">%s</div>
                <hr style="margin:32px 0 16px 0; border:0; border-top:1px solid #eee;">
                <div style="font-size:12px; color:#999;">Письмо сгенерировано автоматически. Не отвечайте на него.</div>
              </td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>
`, title, body)
}

func BuildPasswordResetHTML(link string) string {
	body := fmt.Sprintf(`
      <p style="font-size:16px;color:#222;margin:0 0 16px 0;">Мы получили запрос на сброс пароля для вашего аккаунта.</p>
      <p><a href="%s" style="display:inline-block;padding:12px 24px;background:#2d74da;color:#fff;text-decoration:none;border-radius:6px;font-weight:600;">Сбросить пароль</a></p>
      <p style="font-size:13px;color:#666;margin-top:16px;">Ссылка действует ограниченное время и сработает только один раз.</p>
      <p style="font-size:12px;color:#999;margin-top:16px;">Если кнопка не работает — скопируйте ссылку: %s</p>
      <p style="font-size:12px;color:#999;">Если вы не запрашивали сброс — просто проигнорируйте это письмо.</p>
    `, link, link)
	return BuildSimpleHTML("Сброс пароля", body)
}

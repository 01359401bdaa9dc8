package notify

import (
	"bytes"
	"html/template"

	"github.com/galimov-i/music-site/pkg/domain"
)

const notSpecified = "Не указан"

var (
	songOrderTmpl = template.Must(template.New("song_order").Parse(`
<h2>Новый заказ песни</h2>
<p><strong>Имя:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Телефон:</strong> {{.Phone}}</p>
<p><strong>Тип песни:</strong> {{.SongType}}</p>
<p><strong>Описание:</strong> {{.Description}}</p>
<p><strong>Бюджет:</strong> {{.Budget}}</p>
<p><strong>Срок:</strong> {{.Deadline}}</p>
`))

	contactTmpl = template.Must(template.New("contact").Parse(`
<h2>Новое сообщение</h2>
<p><strong>Имя:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Сообщение:</strong></p>
<p>{{.Message}}</p>
`))

	purchaseTmpl = template.Must(template.New("purchase").Parse(`
<h2>Спасибо за покупку курса "Создай и Опубликуй Свою Музыку"!</h2>
<p>Здравствуйте, {{.Name}}!</p>
<p>Ваш платеж успешно обработан.</p>
<p><strong>Сумма:</strong> {{.Amount}}₽</p>
<p>Доступ к курсу будет отправлен вам в течение 24 часов.</p>
<p>С уважением,<br>Ильшат Галимов</p>
`))
)

// SongOrderNotice is the admin email for a new song order.
func SongOrderNotice(adminEmail string, o domain.SongOrder) (Message, error) {
	o.Phone = orNotSpecified(o.Phone)
	o.Budget = orNotSpecified(o.Budget)
	o.Deadline = orNotSpecified(o.Deadline)
	body, err := render(songOrderTmpl, o)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{adminEmail},
		Subject: "Новый заказ песни от " + o.Name,
		HTML:    body,
	}, nil
}

// ContactNotice is the admin email for a new contact message.
func ContactNotice(adminEmail string, c domain.Contact) (Message, error) {
	body, err := render(contactTmpl, c)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{adminEmail},
		Subject: "Новое сообщение от " + c.Name,
		HTML:    body,
	}, nil
}

// PurchaseConfirmation is the buyer email sent once payment succeeds.
func PurchaseConfirmation(p domain.CoursePurchase) (Message, error) {
	body, err := render(purchaseTmpl, struct {
		Name   string
		Amount string
	}{Name: p.Name, Amount: p.Amount.StringFixed(2)})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{p.Email},
		Subject: "Спасибо за покупку курса!",
		HTML:    body,
	}, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func orNotSpecified(s string) string {
	if s == "" {
		return notSpecified
	}
	return s
}

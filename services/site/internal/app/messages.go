package app

// Messages shown to site visitors.
const (
	MsgNameRequired        = "Пожалуйста, укажите ваше имя"
	MsgEmailRequired       = "Пожалуйста, укажите email"
	MsgEmailInvalid        = "Неверный формат email"
	MsgPhoneInvalid        = "Неверный формат телефона (используйте формат +7XXXXXXXXXX или 8XXXXXXXXXX)"
	MsgSongTypeRequired    = "Пожалуйста, выберите тип песни"
	MsgDescriptionRequired = "Пожалуйста, опишите вашу идею"
	MsgMessageRequired     = "Пожалуйста, введите сообщение"

	MsgSongOrderSent  = "Заявка отправлена! Мы свяжемся с вами в ближайшее время."
	MsgContactSent    = "Сообщение отправлено! Я отвечу вам в ближайшее время."
	MsgSubscribed     = "Вы успешно подписались на рассылку!"
	MsgDemoPayment    = "Демо-режим: платежная система не настроена. Ваша заявка сохранена."
	MsgRateLimited    = "Слишком много запросов. Пожалуйста, подождите минуту."
	MsgSongOrderError = "Произошла ошибка при отправке заявки. Пожалуйста, попробуйте позже."
	MsgContactError   = "Произошла ошибка при отправке сообщения. Пожалуйста, попробуйте позже."
	MsgGenericError   = "Произошла ошибка. Пожалуйста, попробуйте позже."
	MsgPaymentError   = "Произошла ошибка при создании платежа. Пожалуйста, попробуйте позже."
)

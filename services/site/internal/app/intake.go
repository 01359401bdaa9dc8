package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/galimov-i/music-site/internal/validate"
	"github.com/galimov-i/music-site/pkg/domain"
	"github.com/galimov-i/music-site/services/site/internal/notify"
)

// SongOrderInput is the raw song commission form.
type SongOrderInput struct {
	Name        string
	Email       string
	Phone       string
	SongType    string
	Description string
	Budget      string
	Deadline    string
}

// ContactInput is the raw contact form.
type ContactInput struct {
	Name    string
	Email   string
	Message string
}

// SubmitSongOrder validates, stores and announces a song order.
// Validation failures are returned as *ValidationError.
func (a *App) SubmitSongOrder(ctx context.Context, in SongOrderInput) (domain.SongOrder, error) {
	in = SongOrderInput{
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		SongType:    strings.TrimSpace(in.SongType),
		Description: strings.TrimSpace(in.Description),
		Budget:      strings.TrimSpace(in.Budget),
		Deadline:    strings.TrimSpace(in.Deadline),
	}
	var errs []string
	errs = checkName(errs, in.Name)
	errs = checkEmail(errs, in.Email)
	if in.Phone != "" && !validate.Phone(in.Phone) {
		errs = append(errs, MsgPhoneInvalid)
	}
	if !validate.Required(in.SongType) {
		errs = append(errs, MsgSongTypeRequired)
	}
	if !validate.Required(in.Description) {
		errs = append(errs, MsgDescriptionRequired)
	}
	if len(errs) > 0 {
		return domain.SongOrder{}, &ValidationError{Messages: errs}
	}

	order := domain.NewSongOrder(in.Name, in.Email, in.Phone, in.SongType, in.Description, in.Budget, in.Deadline, a.now())
	saved, err := a.store.SaveSongOrder(ctx, order)
	if err != nil {
		return domain.SongOrder{}, fmt.Errorf("save song order: %w", err)
	}
	msg, buildErr := notify.SongOrderNotice(a.adminEmail, saved)
	a.send(ctx, msg, buildErr, "song_order")
	return saved, nil
}

// SubmitContact validates, stores and announces a contact message.
func (a *App) SubmitContact(ctx context.Context, in ContactInput) (domain.Contact, error) {
	in = ContactInput{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Message: strings.TrimSpace(in.Message),
	}
	var errs []string
	errs = checkName(errs, in.Name)
	errs = checkEmail(errs, in.Email)
	if !validate.Required(in.Message) {
		errs = append(errs, MsgMessageRequired)
	}
	if len(errs) > 0 {
		return domain.Contact{}, &ValidationError{Messages: errs}
	}

	saved, err := a.store.SaveContact(ctx, domain.NewContact(in.Name, in.Email, in.Message, a.now()))
	if err != nil {
		return domain.Contact{}, fmt.Errorf("save contact: %w", err)
	}
	msg, buildErr := notify.ContactNotice(a.adminEmail, saved)
	a.send(ctx, msg, buildErr, "contact")
	return saved, nil
}

// Subscribe adds email to the newsletter. An existing subscription is not an
// error; created reports whether a new row was written.
func (a *App) Subscribe(ctx context.Context, email string) (created bool, err error) {
	email = strings.TrimSpace(email)
	if errs := checkEmail(nil, email); len(errs) > 0 {
		return false, &ValidationError{Messages: errs}
	}
	created, err = a.store.Subscribe(ctx, domain.NewsletterSubscriber{
		Email:      email,
		Subscribed: true,
		CreatedAt:  domain.Millis(a.now()),
	})
	if err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}
	return created, nil
}

func checkName(errs []string, name string) []string {
	if !validate.Required(name) {
		errs = append(errs, MsgNameRequired)
	}
	return errs
}

func checkEmail(errs []string, email string) []string {
	switch {
	case !validate.Required(email):
		errs = append(errs, MsgEmailRequired)
	case !validate.Email(email):
		errs = append(errs, MsgEmailInvalid)
	}
	return errs
}

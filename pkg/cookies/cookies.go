package cookies

import (
	"net/http"
	"time"
)

const (
	AccessName  = "accessToken"
	RefreshName = "refreshToken"
)

type Options struct {
	Path     string
	Secure   bool
	SameSite http.SameSite
}

func DefaultOptions() Options {
	return Options{Path: "/", Secure: true, SameSite: http.SameSiteLaxMode}
}

func Create(name, value string, exp time.Time, o Options) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     o.path(),
		Expires:  exp,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: o.sameSite(),
	}
}

func Delete(name string, o Options) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     o.path(),
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: o.sameSite(),
	}
}

func (o Options) path() string {
	if o.Path == "" {
		return "/"
	}
	return o.Path
}

func (o Options) sameSite() http.SameSite {
	if o.SameSite == 0 {
		return http.SameSiteLaxMode
	}
	return o.SameSite
}

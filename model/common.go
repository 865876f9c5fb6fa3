package model

import (
	"math/rand"
)

type PagingMeta struct {
	Page   int                    `json:"page"`
	Count  int64                  `json:"count"`
	Limit  int                    `json:"limit"`
	Order  string                 `json:"order"`
	Filter map[string]interface{} `json:"filter"`
}

var inviteCodeAlphabet = []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")

func randSeq(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = inviteCodeAlphabet[rand.Intn(len(inviteCodeAlphabet))]
	}
	return string(b)
}

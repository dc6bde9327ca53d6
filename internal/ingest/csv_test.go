package ingest

import (
	"strings"
	"testing"
)

func TestReadMessages(t *testing.T) {
	input := "ciphertext,mood,username_enc\n" +
		"\"KJC EATBIVPQF\",3,XGZJ\n" +
		"\"HELLO WORLD\",,\n" +
		"\"ANOTHER ONE\",10,QQ\n"
	msgs, err := ReadMessages(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Label != "message-1" || msgs[0].Ciphertext != "KJC EATBIVPQF" {
		t.Fatalf("unexpected first message: %+v", msgs[0])
	}
	if msgs[0].Mood == nil || *msgs[0].Mood != 3 {
		t.Fatalf("expected mood 3, got %v", msgs[0].Mood)
	}
	if msgs[0].UsernameEnc != "XGZJ" {
		t.Fatalf("unexpected username: %q", msgs[0].UsernameEnc)
	}
	if msgs[1].Mood != nil {
		t.Fatalf("expected absent mood, got %v", *msgs[1].Mood)
	}
	if msgs[2].Mood == nil || *msgs[2].Mood != 10 {
		t.Fatalf("expected mood 10, got %v", msgs[2].Mood)
	}
}

func TestReadMessagesHeaderOrder(t *testing.T) {
	input := "mood,username_enc,ciphertext\n7,AB,\"SOME TEXT\"\n"
	msgs, err := ReadMessages(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if msgs[0].Ciphertext != "SOME TEXT" || *msgs[0].Mood != 7 || msgs[0].UsernameEnc != "AB" {
		t.Fatalf("column matching failed: %+v", msgs[0])
	}
}

func TestReadMessagesErrors(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"no ciphertext": "mood,other\n1,2\n",
		"no rows":       "ciphertext,mood\n",
		"bad mood":      "ciphertext,mood\nABC,notanumber\n",
	}
	for name, input := range cases {
		if _, err := ReadMessages(strings.NewReader(input)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

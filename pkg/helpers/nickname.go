package helpers

import "fmt"

// Word lists are kept to at most seven letters each so every generated
// nickname fits the 6-20 character rule.
var (
	nicknameAdjectives = []string{
		"clever", "swift", "brave", "calm", "eager", "fancy", "gentle", "happy",
		"jolly", "kind", "lively", "mighty", "nimble", "proud", "quiet", "silly",
		"sunny", "witty", "zesty", "bold", "cosmic", "daring", "fuzzy", "lucky",
	}
	nicknameNouns = []string{
		"panda", "tiger", "falcon", "otter", "badger", "fox", "koala", "lynx",
		"eagle", "whale", "wolf", "raven", "gecko", "bison", "heron", "moose",
		"comet", "river", "maple", "cedar", "pebble", "ember", "breeze", "meadow",
	}
)

// NicknameGenerator produces candidate display names.
type NicknameGenerator interface {
	Generate() (string, error)
}

// NicknameFunc adapts a function to NicknameGenerator.
type NicknameFunc func() (string, error)

func (f NicknameFunc) Generate() (string, error) { return f() }

// RandomNicknames generates names of the form adjective_noun_N with N in [0, 999].
type RandomNicknames struct{}

func (RandomNicknames) Generate() (string, error) {
	a, err := randIntn(len(nicknameAdjectives))
	if err != nil {
		return "", err
	}
	n, err := randIntn(len(nicknameNouns))
	if err != nil {
		return "", err
	}
	num, err := randIntn(1000)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s_%d", nicknameAdjectives[a], nicknameNouns[n], num), nil
}

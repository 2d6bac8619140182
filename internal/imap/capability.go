package imap

import "strings"

// CapabilityHandler is an UntaggedHandler for "* CAPABILITY ..." that both
// merges the atoms into the engine's capability set and stashes the raw
// list onto cmd.UserData, for a caller that issued CAPABILITY explicitly
// and wants the list back rather than just the side effect.
func CapabilityHandler(eng *Engine, cmd *Command, tz *Tokenizer) error {
	atoms, err := readAtomsUntilEoln(tz)
	if err != nil {
		return err
	}
	eng.mergeCapabilities(atoms)
	cmd.UserData = atoms
	return nil
}

// HasAuthMechanism reports whether "AUTH=<name>" was advertised.
func (eng *Engine) HasAuthMechanism(name string) bool {
	return eng.HasCapability("AUTH=" + strings.ToUpper(name))
}

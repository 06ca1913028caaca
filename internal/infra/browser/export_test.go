package browser

import "os/exec"

func (o *Opener) SetStarter(start func(*exec.Cmd) error) {
	o.start = start
}

func (o *Opener) BuildArgs(url string) []string {
	return o.buildArgs(url)
}

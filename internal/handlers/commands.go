package handlers

import "github.com/ethria/headlamp/internal/dispatcher"

// CommandResult is returned to the host for :COMMAND:.
type CommandResult struct {
	Handled  bool     `json:"handled"`
	Messages []string `json:"messages"`
}

// callSender collects replies so the host can deliver them.
type callSender struct {
	name     string
	perms    map[string]struct{}
	messages []string
}

func (s *callSender) Name() string { return s.name }

func (s *callSender) HasPermission(perm string) bool {
	_, ok := s.perms[perm]
	return ok
}

func (s *callSender) SendMessage(msg string) {
	s.messages = append(s.messages, msg)
}

func (s *Service) sender(e dispatcher.Event) (*callSender, string, []string, error) {
	call, err := s.deps.Parser.ParseCommand(e.Args)
	if err != nil {
		return nil, "", nil, err
	}
	sender := &callSender{
		name:     call.Sender,
		perms:    make(map[string]struct{}, len(call.Permissions)),
		messages: []string{},
	}
	for _, p := range call.Permissions {
		sender.perms[p] = struct{}{}
	}
	return sender, call.Label, call.Args, nil
}

func (s *Service) handleCommand(e dispatcher.Event) (any, error) {
	sender, label, args, err := s.sender(e)
	if err != nil {
		return nil, err
	}
	handled := s.deps.Commands.Execute(sender, label, args)
	return CommandResult{Handled: handled, Messages: sender.messages}, nil
}

func (s *Service) handleComplete(e dispatcher.Event) (any, error) {
	sender, label, args, err := s.sender(e)
	if err != nil {
		return nil, err
	}
	return s.deps.Commands.Complete(sender, label, args), nil
}


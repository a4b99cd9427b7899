// Package assist bridges an [sms.Service] and a chat assistant.
//
// [Augment] attaches recent messages to prompts that mention texting, and
// [ParseAction] pulls a proposed send out of an assistant reply so the
// caller can confirm it before calling SendMessage.
package assist

package skill

// 语音平台 webhook 的请求/响应信封。
// 只声明本技能用到的字段，其余由平台侧负责。

// RequestEnvelope 是平台发来的请求信封。
type RequestEnvelope struct {
	Version string   `json:"version"`
	Session *Session `json:"session,omitempty"`
	Request Request  `json:"request"`
}

// Session 会话信息。
type Session struct {
	New       bool   `json:"new"`
	SessionID string `json:"sessionId"`
}

// Request 是信封内的具体请求。
// Type 为 LaunchRequest、IntentRequest 或 SessionEndedRequest。
type Request struct {
	Type      string  `json:"type"`
	RequestID string  `json:"requestId"`
	Timestamp string  `json:"timestamp"`
	Locale    string  `json:"locale"`
	Intent    *Intent `json:"intent,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

// Intent 意图及其槽位。
type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots,omitempty"`
}

// Slot 意图槽位。
type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ResponseEnvelope 是返回给平台的响应信封。
type ResponseEnvelope struct {
	Version  string   `json:"version"`
	Response Response `json:"response"`
}

// Response 响应主体。
type Response struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Card             *Card         `json:"card,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	ShouldEndSession bool          `json:"shouldEndSession"`
}

// OutputSpeech SSML 形式的语音输出。
type OutputSpeech struct {
	Type string `json:"type"`
	SSML string `json:"ssml"`
}

// Card 展示在配套 App 里的简单卡片。
type Card struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Reprompt 追问语音。
type Reprompt struct {
	OutputSpeech *OutputSpeech `json:"outputSpeech,omitempty"`
}

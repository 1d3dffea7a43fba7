package model

// ResultState は非同期取得の進行状態を表します
type ResultState int

const (
	StateLoading ResultState = iota // 取得中
	StateSuccess                    // 取得成功（データあり）
	StateError                      // 取得失敗（メッセージあり）
)

// String はログ出力用の状態名を返します
func (s ResultState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Result は非同期取得の結果を Loading / Success / Error のいずれかで表すタグ付き値です
// 失敗は error ではなくメッセージとして保持します
// 一度作った値は変更しません。状態遷移は新しい Result を作ることで表現します
type Result[T any] struct {
	state   ResultState
	data    T
	message string
}

// Loading は取得開始前の Result を返します
func Loading[T any]() Result[T] {
	return Result[T]{state: StateLoading}
}

// Success は取得に成功した Result を返します
func Success[T any](data T) Result[T] {
	return Result[T]{state: StateSuccess, data: data}
}

// Error は取得に失敗した Result を返します
// message は利用者に表示できる説明文です
func Error[T any](message string) Result[T] {
	return Result[T]{state: StateError, message: message}
}

// State は現在の状態を返します
func (r Result[T]) State() ResultState {
	return r.state
}

// Data は Success のときのデータを返します。それ以外ではゼロ値です
func (r Result[T]) Data() T {
	return r.data
}

// Message は Error のときのメッセージを返します。それ以外では空文字です
func (r Result[T]) Message() string {
	return r.message
}

// Match は状態に応じて3つのコールバックのうち1つだけを呼び出します
// 3つのハンドラはすべて必須です。呼び出し側で状態の取りこぼしが起きないようにしています
func (r Result[T]) Match(onLoading func(), onSuccess func(T), onError func(string)) {
	switch r.state {
	case StateSuccess:
		onSuccess(r.data)
	case StateError:
		onError(r.message)
	default:
		onLoading()
	}
}

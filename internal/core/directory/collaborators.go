package directory

import "context"

// PhotoStore は社員写真を保管する外部コラボレーターです。返却される参照は
// 不透明な文字列で、保管領域のライフサイクルはコラボレーター側が所有します。
type PhotoStore interface {
	Store(ctx context.Context, data []byte) (string, error)
	Delete(ctx context.Context, reference string) error
}

// DocumentGenerator は社員プロフィール文書を生成する外部コラボレーターです。
type DocumentGenerator interface {
	GenerateProfile(e *Employee) ([]byte, error)
}

// Mailer は生成済み文書を送付する外部コラボレーターです。
type Mailer interface {
	Send(ctx context.Context, recipient, subject string, attachment []byte) error
}

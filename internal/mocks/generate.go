package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Backend --dir ../domain/backend --output domain/backend --outpkg backendmock --filename backend_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name AccessTokenVerifier --dir ../usecase --output usecase --outpkg usecasemock --filename access_token_verifier_mock.go

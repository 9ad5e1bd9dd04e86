package password

import "golang.org/x/crypto/bcrypt"

// bcrypt成本沿用库默认值
const hashCost = bcrypt.DefaultCost

// Hash 对明文密码做bcrypt哈希，结果可直接入库
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify 比较明文密码与已存储的哈希
func Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

package ui

import "strings"

var keywords = map[string]bool{}

func init() {
	for _, k := range strings.Fields(`SELECT FROM WHERE AND OR NOT IN IS NULL AS ON JOIN INNER LEFT RIGHT
		OUTER CROSS GROUP BY HAVING ORDER ASC DESC LIMIT OFFSET INSERT INTO VALUES UPDATE SET
		DELETE UNION ALL DISTINCT CASE WHEN THEN ELSE END CREATE TABLE DROP ALTER INDEX TOP FETCH
		NEXT ROWS ONLY LIKE BETWEEN EXISTS TRUNCATE BEGIN COMMIT ROLLBACK SAVEPOINT`) {
		keywords[k] = true
	}
}

func isKeyword(word string) bool { return keywords[strings.ToUpper(word)] }
